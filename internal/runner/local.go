// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"release-manager/internal/logger"
)

func buildCommand(ctx context.Context, step CommandStep) *exec.Cmd {
	cmd := exec.CommandContext(ctx, step.Command, step.Args...)
	cmd.Dir = step.Dir
	if len(step.Env) > 0 {
		cmd.Env = append(os.Environ(), step.Env...)
	}
	return cmd
}

// runLocalCommand executes a command locally with output written to the
// given writers.
func runLocalCommand(ctx context.Context, step CommandStep, stdout, stderr io.Writer) error {
	cmd := buildCommand(ctx, step)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Debug("running command", "step", step.Name, "command", step.String(), "dir", step.Dir)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start step '%s': %w", step.Name, err)
	}
	return classify(step, cmd.Wait())
}

// captureLocalCommand executes a command locally and collects its output.
func captureLocalCommand(ctx context.Context, step CommandStep) (Output, error) {
	cmd := buildCommand(ctx, step)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	logger.Debug("running command (captured)", "step", step.Name, "command", step.String(), "dir", step.Dir)
	if err := cmd.Start(); err != nil {
		return Output{}, fmt.Errorf("failed to start step '%s': %w", step.Name, err)
	}
	err := classify(step, cmd.Wait())
	return Output{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String()}, err
}

func classify(step CommandStep, cmdErr error) error {
	if cmdErr == nil {
		return nil
	}
	var exitError *exec.ExitError
	if errors.As(cmdErr, &exitError) && exitError.ExitCode() >= 0 {
		return &ExitError{Step: step.Name, Code: exitError.ExitCode(), Err: cmdErr}
	}
	return fmt.Errorf("step '%s' failed: %w", step.Name, cmdErr)
}
