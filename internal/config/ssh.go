// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kevinburke/ssh_config"

	"release-manager/internal/logger"
)

// DefaultSSHConfigPath returns ~/.ssh/config.
func DefaultSSHConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ssh", "config"), nil
}

// IdentityFileFrom returns the IdentityFile configured for host in an
// ssh_config document, with "~/" expanded. Empty when none is set.
func IdentityFileFrom(r io.Reader, host string) (string, error) {
	cfg, err := ssh_config.Decode(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse ssh config: %w", err)
	}
	keyPath, err := cfg.Get(host, "IdentityFile")
	if err != nil {
		return "", fmt.Errorf("reading IdentityFile for %s: %w", host, err)
	}
	if keyPath == "" {
		return "", nil
	}
	return ResolvePath(keyPath)
}

// IdentityFile looks host up in ~/.ssh/config. Lookup problems are logged and
// reported as "no key" so the caller can fall back to the SSH agent.
func IdentityFile(host string) string {
	sshConfigPath, err := DefaultSSHConfigPath()
	if err != nil {
		logger.Debug("ssh config path unavailable", "error", err)
		return ""
	}
	f, err := os.Open(sshConfigPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("failed to open ssh config file %s: %v", sshConfigPath, err)
		}
		return ""
	}
	defer f.Close()

	keyPath, err := IdentityFileFrom(f, host)
	if err != nil {
		logger.Warnf("ssh config %s: %v", sshConfigPath, err)
		return ""
	}
	return keyPath
}
