// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package gitops

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"release-manager/internal/logger"
	"release-manager/internal/util"
)

// Publisher turns a bumped manifest into pushed git history.
type Publisher struct {
	Repo     *Repository
	Remote   string
	Identity Identity
	Auth     transport.AuthMethod
	// Progress receives push progress; nil discards it.
	Progress io.Writer
	// DryRun prints the equivalent git commands instead of mutating anything.
	DryRun bool
	Out    io.Writer

	switchedFrom string
}

// SwitchedFrom names the branch that was checked out before PublishBranch
// moved the worktree, or "" when the worktree was not moved.
func (p *Publisher) SwitchedFrom() string {
	return p.switchedFrom
}

func (p *Publisher) dryRun(args ...string) {
	line := util.FormatCommand("git", args)
	if p.Out != nil {
		fmt.Fprintf(p.Out, "[dry-run] %s\n", line)
	}
	logger.Info("dry run, git operation not executed", "command", line)
}

// PublishTag commits files on the current branch, creates an annotated tag and
// pushes both, the branch going to targetBranch on the remote.
func (p *Publisher) PublishTag(ctx context.Context, files []string, commitMsg, tag, tagMsg, targetBranch string) error {
	branch, err := p.Repo.CurrentBranch()
	if err != nil {
		return err
	}
	if targetBranch == "" {
		targetBranch = branch
	}
	branchSpec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, targetBranch)
	tagSpec := fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag)

	if p.DryRun {
		p.dryRun(append([]string{"add"}, files...)...)
		p.dryRun("commit", "-m", commitMsg)
		p.dryRun("tag", "-a", tag, "-m", tagMsg)
		p.dryRun("push", p.Remote, branchSpec, tagSpec)
		return nil
	}

	hash, err := p.Repo.Commit(commitMsg, p.Identity, files...)
	if err != nil {
		return err
	}
	if err := p.Repo.Tag(tag, tagMsg, hash, p.Identity); err != nil {
		return err
	}
	return p.Repo.Push(ctx, p.Remote, p.Auth, p.Progress, branchSpec, tagSpec)
}

// PublishBranch commits files on branch and pushes it. An existing branch is
// reused, and a manifest already committed there is not committed twice, so
// releasing the same version again reaches the push.
func (p *Publisher) PublishBranch(ctx context.Context, files []string, commitMsg, branch string) error {
	spec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)

	if p.DryRun {
		if exists, _ := p.Repo.HasBranch(branch); exists {
			p.dryRun("checkout", branch)
		} else {
			p.dryRun("checkout", "-b", branch)
		}
		p.dryRun(append([]string{"add"}, files...)...)
		p.dryRun("commit", "-m", commitMsg)
		p.dryRun("push", p.Remote, spec)
		return nil
	}

	current, err := p.Repo.CurrentBranch()
	if err != nil {
		return err
	}
	if _, err := p.Repo.CheckoutBranch(branch); err != nil {
		return err
	}
	if current != branch {
		p.switchedFrom = current
	}

	if _, err := p.Repo.Commit(commitMsg, p.Identity, files...); err != nil {
		if !errors.Is(err, git.ErrEmptyCommit) {
			return err
		}
		logger.Info("version already committed on branch", "branch", branch)
	}
	return p.Repo.Push(ctx, p.Remote, p.Auth, p.Progress, spec)
}
