// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"fmt"
	"os"

	"release-manager/internal/config"
	"release-manager/internal/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	statusColor     = color.New(color.FgCyan)
	errorColor      = color.New(color.FgRed)
	warnColor       = color.New(color.FgYellow)
	stepColor       = color.New(color.FgYellow)
	successColor    = color.New(color.FgGreen)
	skippedColor    = color.New(color.FgMagenta)
	identifierColor = color.New(color.FgBlue)
)

// cleanArg is the positional argument that switches to clean mode.
const cleanArg = "clean"

type rootFlags struct {
	configPath string
	manifest   string
	distDir    string
	publish    string
	target     string
	remote     string
	branch     string
	newVersion string
	strict     bool
	dryRun     bool
	noColor    bool
	verbose    bool
}

var (
	flags rootFlags
	// cfg is the effective configuration after flag overrides.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rel [clean]",
	Short: "Release a Python package",
	Long: `Runs the release pipeline for the project in the current directory:

  1. prompt for the new version
  2. write it into the manifest (pyproject.toml by default)
  3. publish the change (push commit + tag, open a pull request, or skip)
  4. create the GitHub release unless it already exists
  5. build the distribution
  6. upload it to the package index

By default a failing stage is reported as a warning and the run continues.
With --strict the first failure stops the run with a non-zero exit status.

'rel clean' removes build artifacts (build/, dist/, *.egg-info) and exits.`,
	Example: "  rel\n  rel --strict --publish push\n  rel --new-version 1.4.0 --dry-run\n  rel clean",
	Args:    cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	// Only "clean" is accepted as a positional argument.
	ValidArgs:     []string{cleanArg},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if flags.noColor {
			color.NoColor = true
		}
		loaded, err := config.Load(flags.configPath)
		if err == nil {
			err = applyOverrides(cmd, &loaded)
		}
		if err != nil {
			if !isCleanMode(cmd, args) {
				return err
			}
			// Cleanup never fails on configuration problems.
			warnColor.Fprintf(os.Stderr, "Warning: %v, using default clean targets.\n", err)
			loaded = config.Default()
		}
		cfg = loaded

		level := cfg.LogLevel
		if flags.verbose {
			level = "debug"
		}
		logger.InitLogger(logger.Options{Level: level, Stderr: flags.verbose})
		logger.Debug("configuration loaded", "path", flags.configPath, "strict", cfg.Strict, "strategy", string(cfg.Publish.Strategy))
		return nil
	}
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if isCleanMode(cmd, args) {
			runClean()
			return nil
		}
		return runRelease(cmd.Context())
	}

	f := rootCmd.PersistentFlags()
	f.StringVarP(&flags.configPath, "config", "c", "", "configuration file (default ./"+config.DefaultFileName+")")
	f.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "log debug records to stderr")

	// Overrides are persistent so that 'config show' reflects them.
	rf := rootCmd.PersistentFlags()
	rf.StringVarP(&flags.manifest, "manifest", "m", "", "manifest holding the version declaration")
	rf.StringVar(&flags.distDir, "dist-dir", "", "directory receiving build artifacts")
	rf.StringVarP(&flags.publish, "publish", "p", "", "change publication strategy: push, pr or skip")
	rf.StringVar(&flags.target, "target", "", "branch the release is pinned to")
	rf.StringVar(&flags.remote, "remote", "", "git remote to push to")
	rf.StringVar(&flags.branch, "branch", "", "default branch (push target and pull request base)")
	rf.BoolVar(&flags.strict, "strict", false, "abort at the first failing stage")

	df := rootCmd.Flags()
	df.StringVar(&flags.newVersion, "new-version", "", "use this version instead of prompting")
	df.BoolVarP(&flags.dryRun, "dry-run", "n", false, "print commands instead of changing anything")

	registerCompletions()
}

func isCleanMode(cmd *cobra.Command, args []string) bool {
	return cmd == rootCmd && len(args) == 1 && args[0] == cleanArg
}

// applyOverrides copies explicitly set flags over the file configuration.
func applyOverrides(cmd *cobra.Command, c *config.Config) error {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("manifest") {
		c.Manifest = flags.manifest
	}
	if changed("dist-dir") {
		c.DistDir = flags.distDir
	}
	if changed("publish") {
		s, err := config.ParseStrategy(flags.publish)
		if err != nil {
			return err
		}
		c.Publish.Strategy = s
	}
	if changed("target") {
		c.Release.Target = flags.target
	}
	if changed("remote") {
		c.Publish.Remote = flags.remote
	}
	if changed("branch") {
		c.Publish.Branch = flags.branch
	}
	if changed("strict") {
		c.Strict = flags.strict
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// exitCode maps the outcome of a command to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// RunCLI executes the root command and exits with its status.
func RunCLI() {
	err := rootCmd.Execute()
	if err != nil {
		logger.Error("command failed", "error", err)
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
