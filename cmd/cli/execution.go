// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"release-manager/internal/config"
	"release-manager/internal/gitops"
	"release-manager/internal/hosting"
	"release-manager/internal/logger"
	"release-manager/internal/pipeline"
	"release-manager/internal/release"
	"release-manager/internal/runner"
	"release-manager/internal/ui"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// runClean removes generated artifacts. Problems are reported but never
// change the exit status.
func runClean() {
	workDir, err := os.Getwd()
	if err != nil {
		errorColor.Fprintf(os.Stderr, "Warning: cannot determine working directory: %v\n", err)
		return
	}

	statusColor.Printf("Cleaning build artifacts in %s...\n", identifierColor.Sprint(workDir))
	report := release.Clean(workDir, cfg.CleanTargets)
	for _, removed := range report.Removed {
		fmt.Printf("- removed %s\n", removed)
	}
	for _, problem := range report.Problems {
		warnColor.Fprintf(os.Stderr, "Warning: %v\n", problem)
	}
	if len(report.Removed) == 0 {
		fmt.Println("Nothing to clean.")
	}
	successColor.Println("Clean complete.")
}

// runRelease wires the orchestrator to real collaborators and runs it.
func runRelease(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot determine working directory: %w", err)
	}

	run := runner.NewLocalRunner(flags.dryRun)
	gh := &hosting.GitHub{
		Runner: run,
		Binary: cfg.Release.CLI,
		Dir:    workDir,
		Env:    release.GitHubEnv(cfg, os.Getenv),
	}

	opts := release.Options{
		Config:   cfg,
		WorkDir:  workDir,
		Runner:   run,
		Hosting:  &spinnerHosting{inner: gh},
		Prompter: choosePrompter(),
		Getenv:   os.Getenv,
		DryRun:   flags.dryRun,
		Version:  flags.newVersion,
		Hooks:    stageHooks(),
	}
	var publisher *gitops.Publisher
	if cfg.Publish.Strategy != config.StrategySkip {
		var gitErr error
		publisher, gitErr = openPublisher(workDir)
		if gitErr != nil {
			logger.Warn("git repository unavailable", "error", gitErr)
			opts.GitErr = gitErr
		} else {
			opts.Git = publisher
		}
	}

	if flags.dryRun {
		warnColor.Println("Dry run: commands are printed, nothing is changed.")
	}
	statusColor.Printf("Release policy: %s, publication: %s\n",
		identifierColor.Sprint(pipeline.PolicyFor(cfg.Strict)), identifierColor.Sprint(cfg.Publish.Strategy))

	result, runErr := release.New(opts).Run(ctx)
	if len(result.Report.Outcomes) > 0 {
		printSummary(os.Stdout, result)
	}
	switchedFrom := ""
	if publisher != nil {
		switchedFrom = publisher.SwitchedFrom()
	}
	printCompletionNotice(os.Stdout, result, runErr, switchedFrom)
	return runErr
}

func choosePrompter() release.Prompter {
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		return ui.TUIPrompter{}
	}
	return ui.LinePrompter{In: os.Stdin, Out: os.Stdout}
}

func openPublisher(workDir string) (*gitops.Publisher, error) {
	repo, err := gitops.Open(workDir)
	if err != nil {
		return nil, err
	}
	remoteURL, err := repo.RemoteURL(cfg.Publish.Remote)
	if err != nil {
		return nil, err
	}

	keyPath, err := config.ResolvePath(cfg.Publish.SSHKey)
	if err != nil {
		return nil, err
	}
	auth, err := gitops.AuthFor(remoteURL, gitops.AuthOptions{
		Token:        os.Getenv(cfg.Credentials.GitHubTokenEnv),
		KeyPath:      keyPath,
		IdentityFile: config.IdentityFile,
	})
	if err != nil {
		return nil, err
	}

	return &gitops.Publisher{
		Repo:     repo,
		Remote:   cfg.Publish.Remote,
		Identity: repo.DefaultIdentity(),
		Auth:     auth,
		Progress: os.Stdout,
		DryRun:   flags.dryRun,
		Out:      os.Stdout,
	}, nil
}

func stageHooks() pipeline.Hooks {
	return pipeline.Hooks{
		OnStart: func(stage pipeline.Stage) {
			stepColor.Printf("\n--- Running Stage: %s (%s) ---\n", stage.Name, stage.Description)
		},
		OnFinish: func(stage pipeline.Stage, o pipeline.Outcome) {
			switch o.Status {
			case pipeline.StatusOK:
				successColor.Printf("--- Stage '%s' completed: %s ---\n", stage.Name, o.Message)
			case pipeline.StatusSkipped:
				skippedColor.Printf("--- Stage '%s' skipped: %s ---\n", stage.Name, o.Message)
			case pipeline.StatusWarning:
				warnColor.Fprintf(os.Stderr, "Warning [%s]: %s\n", stage.Name, o.Message)
			case pipeline.StatusFailed:
				if cfg.Strict {
					errorColor.Fprintf(os.Stderr, "Error [%s]: %s\n", stage.Name, o.Message)
				} else {
					warnColor.Fprintf(os.Stderr, "Warning [%s]: %s (continuing)\n", stage.Name, o.Message)
				}
			}
		},
	}
}

func statusText(s pipeline.Status) string {
	switch s {
	case pipeline.StatusOK:
		return successColor.Sprint(s)
	case pipeline.StatusSkipped:
		return skippedColor.Sprint(s)
	case pipeline.StatusWarning:
		return warnColor.Sprint(s)
	default:
		return errorColor.Sprint(s)
	}
}

// printSummary renders one row per attempted stage.
func printSummary(w io.Writer, result release.Result) {
	fmt.Fprintln(w)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Release " + result.Version)
	t.AppendHeader(table.Row{"Stage", "Status", "Duration", "Details"})
	for _, o := range result.Report.Outcomes {
		t.AppendRow(table.Row{o.Stage, statusText(o.Status), o.Duration.Round(time.Millisecond), o.Message})
	}
	if result.Report.Aborted {
		t.AppendFooter(table.Row{"", "", "", "aborted at " + result.Report.AbortedAt})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// printCompletionNotice is shown after every run, whatever the outcome.
// switchedFrom names the branch the worktree was on before publishing moved
// it to the release branch.
func printCompletionNotice(w io.Writer, result release.Result, runErr error, switchedFrom string) {
	warnings := len(result.Report.Warnings())
	fmt.Fprintln(w)
	switch {
	case runErr != nil && result.Report.Aborted:
		errorColor.Fprintf(w, "Release stopped at stage '%s'.\n", result.Report.AbortedAt)
	case runErr != nil:
		errorColor.Fprintln(w, "Release did not start.")
	case warnings > 0:
		warnColor.Fprintf(w, "Release process finished with %d warning(s).\n", warnings)
	default:
		successColor.Fprintln(w, "Release process finished.")
	}
	if switchedFrom != "" {
		warnColor.Fprintf(w, "The worktree is on the release branch; run 'git checkout %s' to return.\n", switchedFrom)
	}
	fmt.Fprintln(w, "Review the output above for warnings before announcing the release.")
}

// spinnerHosting shows a spinner while gh is queried with captured output.
type spinnerHosting struct {
	inner release.Hosting
}

func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	_ = s.Color("cyan")
	s.Suffix = suffix
	return s
}

func (h *spinnerHosting) ReleaseExists(ctx context.Context, tag string) (bool, error) {
	s := newSpinner(fmt.Sprintf(" Checking for existing release %s...", tag))
	s.Start()
	defer s.Stop()
	return h.inner.ReleaseExists(ctx, tag)
}

func (h *spinnerHosting) CreateRelease(ctx context.Context, rel hosting.Release) error {
	return h.inner.CreateRelease(ctx, rel)
}

func (h *spinnerHosting) CreatePullRequest(ctx context.Context, pr hosting.PullRequest) (hosting.PullRequestResult, error) {
	if flags.dryRun {
		return h.inner.CreatePullRequest(ctx, pr)
	}
	s := newSpinner(fmt.Sprintf(" Opening pull request %s -> %s...", pr.Head, pr.Base))
	s.Start()
	defer s.Stop()
	return h.inner.CreatePullRequest(ctx, pr)
}
