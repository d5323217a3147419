// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package gitops performs the version-control side of a release with go-git:
// committing the bumped manifest, tagging it, branching and pushing.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"release-manager/internal/logger"
)

// Identity is the author/tagger recorded on release commits and tags.
type Identity struct {
	Name  string
	Email string
}

// Repository is an open working tree.
type Repository struct {
	repo *git.Repository
	root string
}

// Open opens the repository containing dir, searching parent directories.
func Open(dir string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("repository at %s has no worktree: %w", dir, err)
	}
	return &Repository{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the worktree root.
func (r *Repository) Root() string { return r.root }

// RemoteURL returns the first URL of the named remote.
func (r *Repository) RemoteURL(name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("remote %s: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", name)
	}
	return urls[0], nil
}

// Remotes returns the configured remote names, sorted.
func (r *Repository) Remotes() ([]string, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("listing remotes: %w", err)
	}
	names := make([]string, 0, len(remotes))
	for _, remote := range remotes {
		names = append(names, remote.Config().Name)
	}
	sort.Strings(names)
	return names, nil
}

// Branches returns the short names of the local branches, sorted.
func (r *Repository) Branches() ([]string, error) {
	iter, err := r.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	defer iter.Close()

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// CurrentBranch returns the short name of the checked-out branch.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", errors.New("HEAD is detached")
	}
	return head.Name().Short(), nil
}

// DefaultIdentity reads user.name and user.email from the repository and
// global git configuration.
func (r *Repository) DefaultIdentity() Identity {
	id := Identity{}
	if cfg, err := r.repo.ConfigScoped(gitconfig.GlobalScope); err == nil {
		id.Name, id.Email = cfg.User.Name, cfg.User.Email
	}
	if cfg, err := r.repo.Config(); err == nil {
		if cfg.User.Name != "" {
			id.Name = cfg.User.Name
		}
		if cfg.User.Email != "" {
			id.Email = cfg.User.Email
		}
	}
	if id.Name == "" {
		id.Name = "release-manager"
	}
	return id
}

func signature(id Identity) *object.Signature {
	return &object.Signature{Name: id.Name, Email: id.Email, When: time.Now()}
}

// Commit stages paths (absolute or relative to the worktree root) and
// commits them.
func (r *Repository) Commit(message string, id Identity, paths ...string) (plumbing.Hash, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("opening worktree: %w", err)
	}
	for _, p := range paths {
		rel, err := r.relative(p)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if _, err := wt.Add(rel); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("staging %s: %w", rel, err)
		}
	}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: signature(id)})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("committing: %w", err)
	}
	logger.Info("created commit", "hash", hash.String(), "message", message)
	return hash, nil
}

// Tag creates an annotated tag pointing at hash.
func (r *Repository) Tag(name, message string, hash plumbing.Hash, id Identity) error {
	_, err := r.repo.CreateTag(name, hash, &git.CreateTagOptions{Tagger: signature(id), Message: message})
	if err != nil {
		return fmt.Errorf("creating tag %s: %w", name, err)
	}
	logger.Info("created tag", "tag", name, "hash", hash.String())
	return nil
}

// HasBranch reports whether a local branch exists.
func (r *Repository) HasBranch(name string) (bool, error) {
	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), false)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("looking up branch %s: %w", name, err)
	}
}

// CheckoutBranch switches to branch, creating it at HEAD when it does not
// exist yet. Uncommitted changes stay in the worktree either way. It reports
// whether the branch was created.
func (r *Repository) CheckoutBranch(name string) (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("opening worktree: %w", err)
	}
	exists, err := r.HasBranch(name)
	if err != nil {
		return false, err
	}
	ref := plumbing.NewBranchReferenceName(name)
	if !exists {
		if err := wt.Checkout(&git.CheckoutOptions{Branch: ref, Create: true, Keep: true}); err != nil {
			return false, fmt.Errorf("creating branch %s: %w", name, err)
		}
		return true, nil
	}

	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref, Keep: true}); err != nil {
		return false, fmt.Errorf("switching to branch %s: %w", name, err)
	}
	logger.Debug("reusing existing branch", "branch", name)
	return false, nil
}

// Push pushes refspecs to remote. An up-to-date remote is not an error.
func (r *Repository) Push(ctx context.Context, remote string, auth transport.AuthMethod, progress io.Writer, refspecs ...string) error {
	specs := make([]gitconfig.RefSpec, 0, len(refspecs))
	for _, s := range refspecs {
		spec := gitconfig.RefSpec(s)
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("invalid refspec %s: %w", s, err)
		}
		specs = append(specs, spec)
	}
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   specs,
		Auth:       auth,
		Progress:   progress,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pushing to %s: %w", remote, err)
	}
	return nil
}

func (r *Repository) relative(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path), nil
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return "", fmt.Errorf("%s is outside the repository: %w", path, err)
	}
	return filepath.ToSlash(rel), nil
}
