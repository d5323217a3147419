// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package gitops

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"release-manager/internal/logger"
)

// AuthOptions holds the credential sources for pushing.
type AuthOptions struct {
	// Token authenticates HTTPS remotes.
	Token string
	// KeyPath is the private key for SSH remotes. When empty, IdentityFile
	// resolves one for the remote host, and the SSH agent is used otherwise.
	KeyPath string
	// IdentityFile looks up the key configured for a host, e.g. in ~/.ssh/config.
	IdentityFile func(host string) string
	// KnownHostsPath overrides ~/.ssh/known_hosts.
	KnownHostsPath string
}

// AuthFor picks an authentication method for remoteURL. Local remotes and
// HTTPS remotes without a token get nil, leaving go-git's defaults.
func AuthFor(remoteURL string, opts AuthOptions) (transport.AuthMethod, error) {
	ep, err := transport.NewEndpoint(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parsing remote URL %s: %w", remoteURL, err)
	}

	switch ep.Protocol {
	case "http", "https":
		if opts.Token == "" {
			return nil, nil
		}
		return &githttp.BasicAuth{Username: "x-access-token", Password: opts.Token}, nil
	case "ssh":
		return sshAuth(ep, opts)
	default:
		return nil, nil
	}
}

func sshAuth(ep *transport.Endpoint, opts AuthOptions) (transport.AuthMethod, error) {
	user := ep.User
	if user == "" {
		user = "git"
	}

	hostKeyCallback, err := hostKeyCallback(opts.KnownHostsPath)
	if err != nil {
		return nil, err
	}

	keyPath := opts.KeyPath
	if keyPath == "" && opts.IdentityFile != nil {
		keyPath = opts.IdentityFile(ep.Host)
	}
	if keyPath != "" {
		keys, err := gitssh.NewPublicKeysFromFile(user, keyPath, "")
		if err != nil {
			return nil, fmt.Errorf("loading ssh key %s: %w", keyPath, err)
		}
		keys.HostKeyCallback = hostKeyCallback
		return keys, nil
	}

	agentAuth, err := gitssh.NewSSHAgentAuth(user)
	if err != nil {
		return nil, fmt.Errorf("no ssh key configured for %s and agent unavailable: %w", ep.Host, err)
	}
	agentAuth.HostKeyCallback = hostKeyCallback
	return agentAuth, nil
}

// hostKeyCallback verifies against known_hosts, accepting any key only when the
// file does not exist.
func hostKeyCallback(path string) (gossh.HostKeyCallback, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory for known_hosts: %w", err)
		}
		path = filepath.Join(homeDir, ".ssh", "known_hosts")
	}
	callback, err := knownhosts.New(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warnf("known_hosts file (%s) not found. Host key will not be verified.", path)
			return gossh.InsecureIgnoreHostKey(), nil
		}
		return nil, fmt.Errorf("failed to load known_hosts file %s: %w", path, err)
	}
	return callback, nil
}
