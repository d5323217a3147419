// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package hosting wraps the GitHub CLI (gh) for release and pull-request
// management. gh is treated as an opaque collaborator: only its arguments and
// exit status matter, plus a few well-known stderr phrases.
package hosting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"release-manager/internal/logger"
	"release-manager/internal/runner"
)

// DefaultBinary is the GitHub CLI executable name.
const DefaultBinary = "gh"

// GitHub drives the gh CLI through a runner.
type GitHub struct {
	Runner runner.Runner
	// Binary overrides the gh executable; empty means DefaultBinary.
	Binary string
	// Dir is the repository checkout gh operates in.
	Dir string
	// Env carries credentials, e.g. GH_TOKEN=...
	Env []string
}

// Release describes a release to create.
type Release struct {
	Tag   string
	Title string
	Notes string
	// Target pins the release tag to a branch or commit; empty uses the
	// repository default branch.
	Target string
}

// PullRequest describes a pull request to open.
type PullRequest struct {
	Base  string
	Head  string
	Title string
	Body  string
}

// PullRequestResult reports what CreatePullRequest did.
type PullRequestResult struct {
	URL string
	// AlreadyExists is set when gh refused because an equivalent pull request
	// is already open.
	AlreadyExists bool
}

func (g *GitHub) step(name string, readOnly bool, args ...string) runner.CommandStep {
	bin := g.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	return runner.CommandStep{
		Name:     name,
		Command:  bin,
		Args:     args,
		Dir:      g.Dir,
		Env:      g.Env,
		ReadOnly: readOnly,
	}
}

// ReleaseExists reports whether a release for tag exists. A non-zero exit from
// `gh release view` means it does not; the error is reserved for failures to
// run gh at all.
func (g *GitHub) ReleaseExists(ctx context.Context, tag string) (bool, error) {
	out, err := g.Runner.Output(ctx, g.step("release view", true, "release", "view", tag, "--json", "tagName"))
	if err == nil {
		return true, nil
	}
	var exitErr *runner.ExitError
	if errors.As(err, &exitErr) {
		logger.Debug("release lookup returned non-zero", "tag", tag, "code", exitErr.Code, "stderr", strings.TrimSpace(out.Stderr))
		return false, nil
	}
	return false, fmt.Errorf("checking release %s: %w", tag, err)
}

// CreateRelease runs `gh release create`.
func (g *GitHub) CreateRelease(ctx context.Context, rel Release) error {
	args := []string{"release", "create", rel.Tag, "--title", rel.Title, "--notes", rel.Notes}
	if rel.Target != "" {
		args = append(args, "--target", rel.Target)
	}
	if err := g.Runner.Run(ctx, g.step("release create", false, args...)); err != nil {
		return fmt.Errorf("creating release %s: %w", rel.Tag, err)
	}
	return nil
}

// CreatePullRequest runs `gh pr create`. An already-open equivalent pull
// request is not an error.
func (g *GitHub) CreatePullRequest(ctx context.Context, pr PullRequest) (PullRequestResult, error) {
	args := []string{"pr", "create", "--base", pr.Base, "--title", pr.Title, "--body", pr.Body}
	if pr.Head != "" {
		args = append(args, "--head", pr.Head)
	}
	out, err := g.Runner.Output(ctx, g.step("pr create", false, args...))
	if err != nil {
		stderr := strings.TrimSpace(out.Stderr)
		if strings.Contains(strings.ToLower(stderr), "already exists") {
			return PullRequestResult{URL: lastLine(stderr), AlreadyExists: true}, nil
		}
		if stderr != "" {
			return PullRequestResult{}, fmt.Errorf("creating pull request: %w: %s", err, stderr)
		}
		return PullRequestResult{}, fmt.Errorf("creating pull request: %w", err)
	}
	return PullRequestResult{URL: lastLine(out.Stdout)}, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
