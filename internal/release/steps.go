// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package release

import (
	"release-manager/internal/config"
	"release-manager/internal/runner"
)

// BuildSequence returns the tool-install and build steps. Installation is
// omitted when no tools are configured.
func BuildSequence(cfg config.Config, workDir string) []runner.CommandStep {
	var steps []runner.CommandStep
	if len(cfg.Build.Tools) > 0 {
		args := append([]string{"-m", "pip", "install", "--upgrade"}, cfg.Build.Tools...)
		steps = append(steps, runner.CommandStep{
			Name:    "Install Build Tools",
			Command: cfg.Build.Python,
			Args:    args,
			Dir:     workDir,
		})
	}
	steps = append(steps, runner.CommandStep{
		Name:    "Build Distribution",
		Command: cfg.Build.Python,
		Args:    []string{"-m", "build", "--outdir", cfg.DistDir},
		Dir:     workDir,
	})
	return steps
}

// UploadStep returns the twine invocation for artifacts. env carries the
// package-index credentials.
func UploadStep(cfg config.Config, workDir string, artifacts []string, env []string) runner.CommandStep {
	args := []string{"-m", "twine", "upload", "--non-interactive"}
	if cfg.Build.Repository != "" {
		args = append(args, "--repository", cfg.Build.Repository)
	}
	args = append(args, artifacts...)
	return runner.CommandStep{
		Name:    "Upload Artifacts",
		Command: cfg.Build.Python,
		Args:    args,
		Dir:     workDir,
		Env:     env,
	}
}

// UploadEnv maps the configured PyPI token to twine's environment. Nothing is
// set when the token is absent so twine falls back to its own configuration.
func UploadEnv(cfg config.Config, getenv func(string) string) []string {
	if cfg.Credentials.PyPITokenEnv == "" || getenv == nil {
		return nil
	}
	token := getenv(cfg.Credentials.PyPITokenEnv)
	if token == "" {
		return nil
	}
	return []string{"TWINE_USERNAME=__token__", "TWINE_PASSWORD=" + token}
}

// GitHubEnv maps the configured token to gh's GH_TOKEN.
func GitHubEnv(cfg config.Config, getenv func(string) string) []string {
	if cfg.Credentials.GitHubTokenEnv == "" || getenv == nil {
		return nil
	}
	token := getenv(cfg.Credentials.GitHubTokenEnv)
	if token == "" {
		return nil
	}
	return []string{"GH_TOKEN=" + token}
}
