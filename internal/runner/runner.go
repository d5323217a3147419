// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package runner executes the external tools the release pipeline delegates
// to. Commands either stream their output to the operator's terminal or have
// it captured for inspection.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"release-manager/internal/logger"
	"release-manager/internal/util"
)

// CommandStep is one external command invocation.
type CommandStep struct {
	Name    string
	Command string
	Args    []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env holds extra KEY=VALUE entries appended to the process environment.
	Env []string
	// ReadOnly steps only query state and still run during a dry run.
	ReadOnly bool
}

// String renders the step as a shell line.
func (s CommandStep) String() string {
	return util.FormatCommand(s.Command, s.Args)
}

// Output is the captured result of a command.
type Output struct {
	Stdout string
	Stderr string
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Step string
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("step '%s' exited with status %d", e.Step, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns the exit status carried by err, or -1 when err is not an
// *ExitError.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

// Runner executes command steps.
type Runner interface {
	// Run executes the step, streaming its output.
	Run(ctx context.Context, step CommandStep) error
	// Output executes the step and captures stdout and stderr.
	Output(ctx context.Context, step CommandStep) (Output, error)
}

// LocalRunner runs commands on the local machine.
type LocalRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	// DryRun prints mutating steps instead of running them.
	DryRun bool
}

// NewLocalRunner returns a runner attached to the process's stdout/stderr.
func NewLocalRunner(dryRun bool) *LocalRunner {
	return &LocalRunner{Stdout: os.Stdout, Stderr: os.Stderr, DryRun: dryRun}
}

func (r *LocalRunner) stdout() io.Writer {
	if r.Stdout == nil {
		return io.Discard
	}
	return r.Stdout
}

func (r *LocalRunner) stderr() io.Writer {
	if r.Stderr == nil {
		return io.Discard
	}
	return r.Stderr
}

func (r *LocalRunner) skipForDryRun(step CommandStep) bool {
	if !r.DryRun || step.ReadOnly {
		return false
	}
	fmt.Fprintf(r.stdout(), "[dry-run] %s\n", step)
	logger.Info("dry run, command not executed", "step", step.Name, "command", step.String())
	return true
}

// Run implements Runner.
func (r *LocalRunner) Run(ctx context.Context, step CommandStep) error {
	if r.skipForDryRun(step) {
		return nil
	}
	return runLocalCommand(ctx, step, r.stdout(), r.stderr())
}

// Output implements Runner.
func (r *LocalRunner) Output(ctx context.Context, step CommandStep) (Output, error) {
	if r.skipForDryRun(step) {
		return Output{}, nil
	}
	return captureLocalCommand(ctx, step)
}
