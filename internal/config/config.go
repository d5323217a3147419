// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package config loads the release configuration: where the manifest lives,
// how changes are published, which tools build and upload the package and
// where credentials come from.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory when no explicit
// configuration path is given.
const DefaultFileName = ".release.yaml"

// Strategy selects how the bumped manifest reaches the remote.
type Strategy string

const (
	// StrategyPush commits, tags and pushes to the release branch.
	StrategyPush Strategy = "push"
	// StrategyPR pushes a release branch and opens a pull request.
	StrategyPR Strategy = "pr"
	// StrategySkip leaves version control alone.
	StrategySkip Strategy = "skip"
)

// Strategies lists the accepted strategy names.
var Strategies = []Strategy{StrategyPush, StrategyPR, StrategySkip}

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyPush:
		return StrategyPush, nil
	case StrategyPR:
		return StrategyPR, nil
	case StrategySkip:
		return StrategySkip, nil
	default:
		return "", fmt.Errorf("unknown publish strategy %q (want push, pr or skip)", s)
	}
}

// PublishConfig controls the change-publication stage.
type PublishConfig struct {
	Strategy Strategy `yaml:"strategy"`

	// Remote is the git remote name to push to.
	Remote string `yaml:"remote"`

	// Branch is the default branch: push target, and pull request base.
	Branch string `yaml:"branch"`

	// TagPrefix is prepended to the version to form the git tag, e.g. "v".
	TagPrefix string `yaml:"tag_prefix,omitempty"`

	// BranchPrefix names pull request branches: <prefix><version>.
	BranchPrefix string `yaml:"branch_prefix"`

	// SSHKey is the private key for SSH remotes; empty falls back to
	// ~/.ssh/config and then the SSH agent.
	SSHKey string `yaml:"ssh_key,omitempty"`
}

// ReleaseConfig controls the hosting-platform release.
type ReleaseConfig struct {
	// Target pins the release to a branch; empty uses the repository default.
	Target string `yaml:"target,omitempty"`

	// Title and Notes may contain {version}.
	Title string `yaml:"title"`
	Notes string `yaml:"notes"`

	// CLI is the GitHub CLI executable.
	CLI string `yaml:"cli"`
}

// BuildConfig controls the build and upload stages.
type BuildConfig struct {
	// Python is the interpreter used to run pip, build and twine.
	Python string `yaml:"python"`

	// Tools are installed/upgraded before building. Empty skips installation.
	Tools []string `yaml:"tools"`

	// Repository is passed to twine --repository when set.
	Repository string `yaml:"repository,omitempty"`
}

// CredentialsConfig names the environment variables holding secrets. The
// secrets themselves never live in the file.
type CredentialsConfig struct {
	GitHubTokenEnv string `yaml:"github_token_env"`
	PyPITokenEnv   string `yaml:"pypi_token_env"`
}

// Config is the top-level release configuration.
type Config struct {
	// Manifest is the file holding the version declaration.
	Manifest string `yaml:"manifest"`

	// DistDir receives build artifacts and is the upload source.
	DistDir string `yaml:"dist_dir"`

	// CleanTargets are removed by clean mode; glob patterns allowed.
	CleanTargets []string `yaml:"clean_targets"`

	// Strict aborts the run at the first failing stage.
	Strict bool `yaml:"strict"`

	LogLevel string `yaml:"log_level,omitempty"`

	Publish     PublishConfig     `yaml:"publish"`
	Release     ReleaseConfig     `yaml:"release"`
	Build       BuildConfig       `yaml:"build"`
	Credentials CredentialsConfig `yaml:"credentials"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Manifest:     "pyproject.toml",
		DistDir:      "dist",
		CleanTargets: []string{"build", "dist", "*.egg-info"},
		Publish: PublishConfig{
			Strategy:     StrategyPR,
			Remote:       "origin",
			Branch:       "main",
			BranchPrefix: "release/",
		},
		Release: ReleaseConfig{
			Title: "Release {version}",
			Notes: "Release version {version}",
			CLI:   "gh",
		},
		Build: BuildConfig{
			Python: "python3",
			Tools:  []string{"build", "twine"},
		},
		Credentials: CredentialsConfig{
			GitHubTokenEnv: "GH_TOKEN",
			PyPITokenEnv:   "PYPI_TOKEN",
		},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Manifest) == "" {
		return errors.New("manifest must not be empty")
	}
	if strings.TrimSpace(c.DistDir) == "" {
		return errors.New("dist_dir must not be empty")
	}
	if _, err := ParseStrategy(string(c.Publish.Strategy)); err != nil {
		return err
	}
	if c.Publish.Strategy != StrategySkip {
		if c.Publish.Remote == "" {
			return errors.New("publish.remote must not be empty")
		}
		if c.Publish.Branch == "" {
			return errors.New("publish.branch must not be empty")
		}
	}
	if c.Publish.Strategy == StrategyPR && c.Publish.BranchPrefix == "" {
		return errors.New("publish.branch_prefix must not be empty for the pr strategy")
	}
	if c.Build.Python == "" {
		return errors.New("build.python must not be empty")
	}
	if c.Release.CLI == "" {
		return errors.New("release.cli must not be empty")
	}
	for _, target := range c.CleanTargets {
		if _, err := filepath.Match(target, ""); err != nil {
			return fmt.Errorf("invalid clean target %q: %w", target, err)
		}
	}
	return nil
}

// Load reads path on top of Default. A missing file yields the defaults when
// path is the implicit default, and an error when it was requested explicitly.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML. It refuses to replace an existing file unless
// overwrite is set.
func Save(path string, cfg Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	// Write with permissions rw-r----- (0640)
	if err := os.WriteFile(path, data, 0640); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	return data, nil
}

// ResolvePath expands a leading "~/" to the user's home directory.
func ResolvePath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path, fmt.Errorf("could not get user home directory to resolve path '%s': %w", path, err)
	}

	return filepath.Join(homeDir, path[2:]), nil
}

// Expand substitutes {version} in a title or notes template.
func Expand(template, version string) string {
	return strings.ReplaceAll(template, "{version}", version)
}
