// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package release defines the release pipeline: version acquisition followed
// by the manifest, publish, release, build and upload stages, plus the
// artifact clean-up mode.
package release

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"release-manager/internal/config"
	"release-manager/internal/hosting"
	"release-manager/internal/logger"
	"release-manager/internal/manifest"
	"release-manager/internal/pipeline"
	"release-manager/internal/runner"
)

// Stage names, in pipeline order.
const (
	StageManifest = "manifest"
	StagePublish  = "publish"
	StageRelease  = "release"
	StageBuild    = "build"
	StageUpload   = "upload"
)

var (
	// ErrEmptyVersion is returned when the operator supplies no version.
	ErrEmptyVersion = errors.New("no version entered")
	// ErrNoArtifacts is reported by the upload stage when the dist directory
	// holds nothing to upload.
	ErrNoArtifacts = errors.New("no build artifacts found")
)

// Prompter asks the operator for the new version. current is the version in
// the manifest, or empty when it could not be read.
type Prompter interface {
	PromptVersion(ctx context.Context, current string) (string, error)
}

// Hosting is the subset of the hosting-platform client the pipeline uses.
type Hosting interface {
	ReleaseExists(ctx context.Context, tag string) (bool, error)
	CreateRelease(ctx context.Context, rel hosting.Release) error
	CreatePullRequest(ctx context.Context, pr hosting.PullRequest) (hosting.PullRequestResult, error)
}

// GitPublisher records the bumped manifest in version control.
type GitPublisher interface {
	PublishTag(ctx context.Context, files []string, commitMsg, tag, tagMsg, targetBranch string) error
	PublishBranch(ctx context.Context, files []string, commitMsg, branch string) error
}

// Options wires the orchestrator to its collaborators. Everything the
// pipeline touches comes through here rather than from process state.
type Options struct {
	Config config.Config
	// WorkDir is the project root; relative config paths resolve against it.
	WorkDir  string
	Runner   runner.Runner
	Hosting  Hosting
	Git      GitPublisher
	Prompter Prompter
	// Getenv is the credential source.
	Getenv func(string) string
	DryRun bool
	Hooks  pipeline.Hooks
	// Version, when set, is used instead of prompting.
	Version string
	// GitErr explains why Git is nil, for strategies that need it.
	GitErr error
}

// Result is the outcome of a full run.
type Result struct {
	Version string
	Report  pipeline.Report
}

// Orchestrator runs the release pipeline.
type Orchestrator struct {
	opts Options
}

// New returns an orchestrator for opts.
func New(opts Options) *Orchestrator {
	return &Orchestrator{opts: opts}
}

func (o *Orchestrator) path(p string) string {
	if filepath.IsAbs(p) || o.opts.WorkDir == "" {
		return p
	}
	return filepath.Join(o.opts.WorkDir, p)
}

// Tag returns the git/release tag for version.
func (o *Orchestrator) Tag(version string) string {
	return o.opts.Config.Publish.TagPrefix + version
}

// AcquireVersion returns the preset version or prompts for one.
func (o *Orchestrator) AcquireVersion(ctx context.Context) (string, error) {
	version := strings.TrimSpace(o.opts.Version)
	if version == "" {
		if o.opts.Prompter == nil {
			return "", errors.New("no version given and no prompt available")
		}
		current, err := manifest.ReadVersion(o.path(o.opts.Config.Manifest))
		if err != nil {
			logger.Debug("current version unavailable", "error", err)
			current = ""
		}
		answer, err := o.opts.Prompter.PromptVersion(ctx, current)
		if err != nil {
			return "", fmt.Errorf("reading version: %w", err)
		}
		version = strings.TrimSpace(answer)
	}
	if version == "" {
		return "", ErrEmptyVersion
	}
	return version, nil
}

// Run acquires the version and executes every stage under the configured
// policy. The error is non-nil when no version was acquired or the pipeline
// was stopped early; the returned Result is still populated in the latter case.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	version, err := o.AcquireVersion(ctx)
	if err != nil {
		return Result{}, err
	}
	logger.Info("starting release", "version", version, "policy", pipeline.PolicyFor(o.opts.Config.Strict).String(),
		"strategy", string(o.opts.Config.Publish.Strategy), "dry_run", o.opts.DryRun)

	report, err := pipeline.Run(ctx, o.Stages(version), pipeline.PolicyFor(o.opts.Config.Strict), o.opts.Hooks)
	return Result{Version: version, Report: report}, err
}

// Stages returns the pipeline for version.
func (o *Orchestrator) Stages(version string) []pipeline.Stage {
	return []pipeline.Stage{
		{
			Name:        StageManifest,
			Description: "Update version in " + o.opts.Config.Manifest,
			Run:         func(ctx context.Context) pipeline.Outcome { return o.updateManifest(version) },
		},
		{
			Name:        StagePublish,
			Description: "Publish change (" + string(o.opts.Config.Publish.Strategy) + ")",
			Run:         func(ctx context.Context) pipeline.Outcome { return o.publish(ctx, version) },
		},
		{
			Name:        StageRelease,
			Description: "Create release " + o.Tag(version),
			Run:         func(ctx context.Context) pipeline.Outcome { return o.createRelease(ctx, version) },
		},
		{
			Name:        StageBuild,
			Description: "Build distribution",
			Run:         func(ctx context.Context) pipeline.Outcome { return o.build(ctx) },
		},
		{
			Name:        StageUpload,
			Description: "Upload to package index",
			Run:         func(ctx context.Context) pipeline.Outcome { return o.upload(ctx) },
		},
	}
}

func (o *Orchestrator) updateManifest(version string) pipeline.Outcome {
	path := o.path(o.opts.Config.Manifest)
	if o.opts.DryRun {
		current, err := manifest.ReadVersion(path)
		if err != nil {
			return pipeline.Failed(err)
		}
		return pipeline.OK("dry run: would change %s from %s to %s", o.opts.Config.Manifest, current, version)
	}
	previous, err := manifest.UpdateFile(path, version)
	if err != nil {
		return pipeline.Failed(err)
	}
	return pipeline.OK("%s: %s -> %s", o.opts.Config.Manifest, previous, version)
}

func (o *Orchestrator) publish(ctx context.Context, version string) pipeline.Outcome {
	cfg := o.opts.Config
	if cfg.Publish.Strategy == config.StrategySkip {
		return pipeline.Skipped("change publication disabled")
	}
	if o.opts.Git == nil {
		err := errors.New("git repository unavailable")
		if o.opts.GitErr != nil {
			err = fmt.Errorf("%w: %w", err, o.opts.GitErr)
		}
		return pipeline.Failed(err)
	}

	files := []string{o.path(cfg.Manifest)}
	commitMsg := "Bump version to " + version

	switch cfg.Publish.Strategy {
	case config.StrategyPush:
		tag := o.Tag(version)
		if err := o.opts.Git.PublishTag(ctx, files, commitMsg, tag, "Release "+version, cfg.Publish.Branch); err != nil {
			return pipeline.Failed(err)
		}
		return pipeline.OK("pushed %s and tag %s to %s", cfg.Publish.Branch, tag, cfg.Publish.Remote)

	case config.StrategyPR:
		branch := cfg.Publish.BranchPrefix + version
		if err := o.opts.Git.PublishBranch(ctx, files, commitMsg, branch); err != nil {
			return pipeline.Failed(err)
		}
		res, err := o.opts.Hosting.CreatePullRequest(ctx, hosting.PullRequest{
			Base:  cfg.Publish.Branch,
			Head:  branch,
			Title: config.Expand(cfg.Release.Title, version),
			Body:  commitMsg,
		})
		if err != nil {
			return pipeline.Failed(err)
		}
		if res.AlreadyExists {
			return pipeline.Skipped("pull request for %s already exists %s", branch, res.URL)
		}
		return pipeline.OK("opened pull request %s", res.URL)

	default:
		return pipeline.Failed(fmt.Errorf("unknown publish strategy %q", cfg.Publish.Strategy))
	}
}

func (o *Orchestrator) createRelease(ctx context.Context, version string) pipeline.Outcome {
	cfg := o.opts.Config
	tag := o.Tag(version)

	exists, err := o.opts.Hosting.ReleaseExists(ctx, tag)
	if err != nil {
		return pipeline.Failed(err)
	}
	if exists {
		return pipeline.Warning("release %s already exists, not creating it again", tag)
	}

	err = o.opts.Hosting.CreateRelease(ctx, hosting.Release{
		Tag:    tag,
		Title:  config.Expand(cfg.Release.Title, version),
		Notes:  config.Expand(cfg.Release.Notes, version),
		Target: cfg.Release.Target,
	})
	if err != nil {
		return pipeline.Failed(err)
	}
	return pipeline.OK("created release %s", tag)
}

func (o *Orchestrator) build(ctx context.Context) pipeline.Outcome {
	for _, step := range BuildSequence(o.opts.Config, o.opts.WorkDir) {
		if err := o.opts.Runner.Run(ctx, step); err != nil {
			return pipeline.Failed(err)
		}
	}
	return pipeline.OK("artifacts written to %s", o.opts.Config.DistDir)
}

func (o *Orchestrator) upload(ctx context.Context) pipeline.Outcome {
	distDir := o.path(o.opts.Config.DistDir)
	artifacts, err := filepath.Glob(filepath.Join(distDir, "*"))
	if err != nil {
		return pipeline.Failed(err)
	}
	if len(artifacts) == 0 {
		if !o.opts.DryRun {
			return pipeline.Failed(fmt.Errorf("%w in %s", ErrNoArtifacts, o.opts.Config.DistDir))
		}
		artifacts = []string{filepath.Join(distDir, "*")}
	}

	step := UploadStep(o.opts.Config, o.opts.WorkDir, artifacts, UploadEnv(o.opts.Config, o.opts.Getenv))
	if err := o.opts.Runner.Run(ctx, step); err != nil {
		return pipeline.Failed(err)
	}
	return pipeline.OK("uploaded %d artifact(s)", len(artifacts))
}
