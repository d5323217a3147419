// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package gitops

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"release-manager/internal/logger"
)

var testIdentity = Identity{Name: "Release Bot", Email: "bot@example.com"}

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

// initRepo creates a repository with one commit containing pyproject.toml.
func initRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	manifest := filepath.Join(dir, "pyproject.toml")
	require.NoError(t, os.WriteFile(manifest, []byte("version = \"0.1.0\"\n"), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("pyproject.toml")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{Author: &object.Signature{Name: "t", Email: "t@example.com"}})
	require.NoError(t, err)
	return dir, repo
}

func TestCommitAndTag(t *testing.T) {
	dir, raw := initRepo(t)
	repo, err := Open(filepath.Join(dir))
	require.NoError(t, err)

	manifest := filepath.Join(dir, "pyproject.toml")
	require.NoError(t, os.WriteFile(manifest, []byte("version = \"1.0.0\"\n"), 0644))

	hash, err := repo.Commit("Bump version to 1.0.0", testIdentity, manifest)
	require.NoError(t, err)

	commit, err := raw.CommitObject(hash)
	require.NoError(t, err)
	assert.Equal(t, "Bump version to 1.0.0", strings.TrimSpace(commit.Message))
	assert.Equal(t, "Release Bot", commit.Author.Name)

	require.NoError(t, repo.Tag("v1.0.0", "Release 1.0.0", hash, testIdentity))
	ref, err := raw.Tag("v1.0.0")
	require.NoError(t, err)
	tagObj, err := raw.TagObject(ref.Hash())
	require.NoError(t, err, "tag should be annotated")
	assert.Equal(t, hash, tagObj.Target)
	assert.Equal(t, "Release 1.0.0", strings.TrimSpace(tagObj.Message))
}

func TestOpenFindsRepositoryFromSubdirectory(t *testing.T) {
	dir, _ := initRepo(t)
	sub := filepath.Join(dir, "src", "pkg")
	require.NoError(t, os.MkdirAll(sub, 0755))

	repo, err := Open(sub)
	require.NoError(t, err)
	assert.Equal(t, dir, repo.Root())
}

func TestOpenOutsideRepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.Error(t, err)
}

func TestCheckoutBranchKeepsChanges(t *testing.T) {
	dir, raw := initRepo(t)
	repo, err := Open(dir)
	require.NoError(t, err)

	manifest := filepath.Join(dir, "pyproject.toml")
	require.NoError(t, os.WriteFile(manifest, []byte("version = \"2.0.0\"\n"), 0644))

	created, err := repo.CheckoutBranch("release/2.0.0")
	require.NoError(t, err)
	assert.True(t, created)
	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "release/2.0.0", branch)

	data, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.Equal(t, "version = \"2.0.0\"\n", string(data))

	_, err = raw.Reference(plumbing.NewBranchReferenceName("release/2.0.0"), true)
	assert.NoError(t, err)
}

func TestRemoteURL(t *testing.T) {
	dir, raw := initRepo(t)
	_, err := raw.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:o/r.git"}})
	require.NoError(t, err)

	repo, err := Open(dir)
	require.NoError(t, err)
	url, err := repo.RemoteURL("origin")
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:o/r.git", url)

	_, err = repo.RemoteURL("upstream")
	assert.Error(t, err)
}

func TestRemotesAndBranches(t *testing.T) {
	dir, raw := initRepo(t)
	for _, name := range []string{"upstream", "origin"} {
		_, err := raw.CreateRemote(&gitconfig.RemoteConfig{Name: name, URLs: []string{"https://example.com/" + name}})
		require.NoError(t, err)
	}

	repo, err := Open(dir)
	require.NoError(t, err)
	remotes, err := repo.Remotes()
	require.NoError(t, err)
	assert.Equal(t, []string{"origin", "upstream"}, remotes)

	_, err = repo.CheckoutBranch("release/1.0.0")
	require.NoError(t, err)
	branches, err := repo.Branches()
	require.NoError(t, err)
	assert.Contains(t, branches, "release/1.0.0")
	assert.Len(t, branches, 2)
}

func TestPublishTagDryRunLeavesRepositoryUntouched(t *testing.T) {
	dir, raw := initRepo(t)
	repo, err := Open(dir)
	require.NoError(t, err)

	head, err := raw.Head()
	require.NoError(t, err)

	var out bytes.Buffer
	p := &Publisher{Repo: repo, Remote: "origin", Identity: testIdentity, DryRun: true, Out: &out}
	err = p.PublishTag(context.Background(), []string{"pyproject.toml"}, "Bump version to 1.0.0", "v1.0.0", "Release 1.0.0", "main")
	require.NoError(t, err)

	after, err := raw.Head()
	require.NoError(t, err)
	assert.Equal(t, head.Hash(), after.Hash())
	assert.Contains(t, out.String(), "[dry-run] git tag -a v1.0.0 -m 'Release 1.0.0'")
	assert.Contains(t, out.String(), "refs/tags/v1.0.0:refs/tags/v1.0.0")
}

func TestPublishTagPushesToBareRemote(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary required for local file transport")
	}
	dir, raw := initRepo(t)
	remoteDir := t.TempDir()
	_, err := git.PlainInit(remoteDir, true)
	require.NoError(t, err)
	_, err = raw.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{remoteDir}})
	require.NoError(t, err)

	repo, err := Open(dir)
	require.NoError(t, err)
	branch, err := repo.CurrentBranch()
	require.NoError(t, err)

	manifest := filepath.Join(dir, "pyproject.toml")
	require.NoError(t, os.WriteFile(manifest, []byte("version = \"1.0.0\"\n"), 0644))

	p := &Publisher{Repo: repo, Remote: "origin", Identity: testIdentity}
	err = p.PublishTag(context.Background(), []string{manifest}, "Bump version to 1.0.0", "1.0.0", "Release 1.0.0", branch)
	require.NoError(t, err)

	remote, err := git.PlainOpen(remoteDir)
	require.NoError(t, err)
	_, err = remote.Tag("1.0.0")
	assert.NoError(t, err)
	_, err = remote.Reference(plumbing.NewBranchReferenceName(branch), true)
	assert.NoError(t, err)
}

func TestAuthFor(t *testing.T) {
	auth, err := AuthFor("https://github.com/o/r.git", AuthOptions{Token: "secret"})
	require.NoError(t, err)
	basic, ok := auth.(*githttp.BasicAuth)
	require.True(t, ok)
	assert.Equal(t, "secret", basic.Password)

	auth, err = AuthFor("https://github.com/o/r.git", AuthOptions{})
	require.NoError(t, err)
	assert.Nil(t, auth)

	auth, err = AuthFor("/srv/git/r.git", AuthOptions{Token: "ignored"})
	require.NoError(t, err)
	assert.Nil(t, auth)
}

func TestAuthForSSHMissingKeyFile(t *testing.T) {
	knownHosts := filepath.Join(t.TempDir(), "known_hosts")
	_, err := AuthFor("git@github.com:o/r.git", AuthOptions{
		KnownHostsPath: knownHosts,
		IdentityFile:   func(host string) string { return filepath.Join(t.TempDir(), "id_missing") },
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading ssh key")
}

func TestPublishBranchTwiceForSameVersion(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary required for local file transport")
	}
	dir, raw := initRepo(t)
	remoteDir := t.TempDir()
	_, err := git.PlainInit(remoteDir, true)
	require.NoError(t, err)
	_, err = raw.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{remoteDir}})
	require.NoError(t, err)

	repo, err := Open(dir)
	require.NoError(t, err)
	base, err := repo.CurrentBranch()
	require.NoError(t, err)

	manifest := filepath.Join(dir, "pyproject.toml")
	bump := func() {
		require.NoError(t, os.WriteFile(manifest, []byte("version = \"9.9.9\"\n"), 0644))
	}
	p := &Publisher{Repo: repo, Remote: "origin", Identity: testIdentity}

	bump()
	require.NoError(t, p.PublishBranch(context.Background(), []string{manifest}, "Bump version to 9.9.9", "release/9.9.9"))
	assert.Equal(t, base, p.SwitchedFrom())
	first, err := raw.Reference(plumbing.NewBranchReferenceName("release/9.9.9"), true)
	require.NoError(t, err)

	// Back on the base branch with the manifest bumped again, as on a rerun.
	wt, err := raw.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(base), Force: true}))
	bump()

	require.NoError(t, p.PublishBranch(context.Background(), []string{manifest}, "Bump version to 9.9.9", "release/9.9.9"))
	second, err := raw.Reference(plumbing.NewBranchReferenceName("release/9.9.9"), true)
	require.NoError(t, err)
	assert.Equal(t, first.Hash(), second.Hash(), "no second bump commit")

	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "release/9.9.9", branch)

	remote, err := git.PlainOpen(remoteDir)
	require.NoError(t, err)
	pushed, err := remote.Reference(plumbing.NewBranchReferenceName("release/9.9.9"), true)
	require.NoError(t, err)
	assert.Equal(t, first.Hash(), pushed.Hash())
}

func TestPublishBranchDryRunPrintsCommands(t *testing.T) {
	dir, _ := initRepo(t)
	repo, err := Open(dir)
	require.NoError(t, err)

	var out bytes.Buffer
	p := &Publisher{Repo: repo, Remote: "origin", Identity: testIdentity, DryRun: true, Out: &out}
	require.NoError(t, p.PublishBranch(context.Background(), []string{"pyproject.toml"}, "Bump version to 1.0.0", "release/1.0.0"))

	assert.Contains(t, out.String(), "[dry-run] git checkout -b release/1.0.0")
	assert.Empty(t, p.SwitchedFrom())
	branches, err := repo.Branches()
	require.NoError(t, err)
	assert.NotContains(t, branches, "release/1.0.0")
}
