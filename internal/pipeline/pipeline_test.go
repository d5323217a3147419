// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"release-manager/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Discard()
	m.Run()
}

func recordingStage(name string, calls *[]string, outcome Outcome) Stage {
	return Stage{
		Name: name,
		Run: func(ctx context.Context) Outcome {
			*calls = append(*calls, name)
			return outcome
		},
	}
}

func TestRunLenientContinuesPastFailures(t *testing.T) {
	var calls []string
	stages := []Stage{
		recordingStage("manifest", &calls, OK("updated")),
		recordingStage("build", &calls, Failed(errors.New("build exploded"))),
		recordingStage("upload", &calls, OK("uploaded")),
	}

	report, err := Run(context.Background(), stages, Lenient, Hooks{})
	require.NoError(t, err)
	assert.Equal(t, []string{"manifest", "build", "upload"}, calls)
	assert.False(t, report.Aborted)
	assert.True(t, report.HasFailures())

	warnings := report.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "build", warnings[0].Stage)
	assert.EqualError(t, warnings[0].Err, "build exploded")
}

func TestRunStrictStopsAtFirstFailure(t *testing.T) {
	var calls []string
	cause := errors.New("no version line")
	stages := []Stage{
		recordingStage("manifest", &calls, Failed(cause)),
		recordingStage("publish", &calls, OK("pushed")),
		recordingStage("release", &calls, OK("created")),
	}

	report, err := Run(context.Background(), stages, Strict, Hooks{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAborted)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{"manifest"}, calls)
	assert.True(t, report.Aborted)
	assert.Equal(t, "manifest", report.AbortedAt)
	assert.False(t, report.Attempted("publish"))
}

func TestRunStrictTreatsWarningsAsNonFatal(t *testing.T) {
	var calls []string
	stages := []Stage{
		recordingStage("release", &calls, Warning("release v1 already exists")),
		recordingStage("build", &calls, OK("built")),
	}

	report, err := Run(context.Background(), stages, Strict, Hooks{})
	require.NoError(t, err)
	assert.Equal(t, []string{"release", "build"}, calls)
	assert.Len(t, report.Warnings(), 1)
}

func TestRunHooksAndStageNames(t *testing.T) {
	var started, finished []string
	stages := []Stage{
		{Name: "a", Run: func(context.Context) Outcome { return OK("") }},
		{Name: "b", Run: func(context.Context) Outcome { return Skipped("nothing to do") }},
	}

	report, err := Run(context.Background(), stages, Lenient, Hooks{
		OnStart:  func(s Stage) { started = append(started, s.Name) },
		OnFinish: func(s Stage, o Outcome) { finished = append(finished, s.Name+":"+o.Status.String()) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, started)
	assert.Equal(t, []string{"a:ok", "b:skipped"}, finished)

	o, ok := report.Outcome("b")
	require.True(t, ok)
	assert.Equal(t, "b", o.Stage)
	assert.Equal(t, "nothing to do", o.Message)
}

func TestRunFailedWithoutErrorGetsOne(t *testing.T) {
	stages := []Stage{{Name: "x", Run: func(context.Context) Outcome {
		return Outcome{Status: StatusFailed, Message: "broken"}
	}}}

	report, err := Run(context.Background(), stages, Lenient, Hooks{})
	require.NoError(t, err)
	assert.EqualError(t, report.Outcomes[0].Err, "broken")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls []string
	stages := []Stage{
		{Name: "first", Run: func(context.Context) Outcome {
			calls = append(calls, "first")
			cancel()
			return OK("")
		}},
		recordingStage("second", &calls, OK("")),
	}

	report, err := Run(ctx, stages, Lenient, Hooks{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"first"}, calls)
	assert.Equal(t, "second", report.AbortedAt)
}

func TestStatusAndPolicyStrings(t *testing.T) {
	assert.Equal(t, "warning", StatusWarning.String())
	assert.Equal(t, "status(42)", Status(42).String())
	assert.Equal(t, Strict, PolicyFor(true))
	assert.Equal(t, "lenient", PolicyFor(false).String())
}
