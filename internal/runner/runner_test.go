// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package runner

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shStep(name, script string) CommandStep {
	return CommandStep{Name: name, Command: "sh", Args: []string{"-c", script}}
}

func TestLocalRunnerRunStreamsOutput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := &LocalRunner{Stdout: &stdout, Stderr: &stderr}

	err := r.Run(context.Background(), shStep("echo", "echo out; echo err >&2"))
	require.NoError(t, err)
	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

func TestLocalRunnerReportsExitCode(t *testing.T) {
	r := &LocalRunner{}

	err := r.Run(context.Background(), shStep("fail", "exit 3"))
	require.Error(t, err)
	assert.Equal(t, 3, ExitCode(err))

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, "fail", exitErr.Step)
	assert.Contains(t, err.Error(), "status 3")
}

func TestLocalRunnerOutputCapturesStreams(t *testing.T) {
	r := &LocalRunner{}

	out, err := r.Output(context.Background(), shStep("capture", "echo hello; echo oops >&2; exit 1"))
	require.Error(t, err)
	assert.Equal(t, "hello\n", out.Stdout)
	assert.Equal(t, "oops\n", out.Stderr)
	assert.Equal(t, 1, ExitCode(err))
}

func TestLocalRunnerPassesEnvAndDir(t *testing.T) {
	dir := t.TempDir()
	r := &LocalRunner{}

	step := shStep("env", `printf '%s %s' "$RELEASE_TEST_VAR" "$(pwd)"`)
	step.Env = []string{"RELEASE_TEST_VAR=present"}
	step.Dir = dir

	out, err := r.Output(context.Background(), step)
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "present ")
	assert.Contains(t, out.Stdout, dir)
}

func TestLocalRunnerMissingBinary(t *testing.T) {
	r := &LocalRunner{}

	err := r.Run(context.Background(), CommandStep{Name: "missing", Command: "release-manager-no-such-binary"})
	require.Error(t, err)
	assert.Equal(t, -1, ExitCode(err))
}

func TestLocalRunnerDryRun(t *testing.T) {
	var stdout bytes.Buffer
	r := &LocalRunner{Stdout: &stdout, DryRun: true}

	err := r.Run(context.Background(), shStep("mutate", "exit 9"))
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "[dry-run] sh -c 'exit 9'")

	readOnly := shStep("query", "echo queried")
	readOnly.ReadOnly = true
	out, err := r.Output(context.Background(), readOnly)
	require.NoError(t, err)
	assert.Equal(t, "queried\n", out.Stdout)
}
