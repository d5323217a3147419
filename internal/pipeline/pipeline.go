// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package pipeline runs an ordered list of named stages under an explicit
// failure policy.
//
// Every stage reports an Outcome. Under the Lenient policy a failed stage is
// recorded and the next stage runs; under the Strict policy the first failure
// stops the run and no later stage is attempted. Stages run one at a time on
// the caller's goroutine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"release-manager/internal/logger"
)

// ErrAborted is returned by Run when the Strict policy stopped the pipeline.
var ErrAborted = errors.New("pipeline aborted")

// Status classifies a stage outcome.
type Status int

const (
	StatusOK Status = iota
	StatusSkipped
	StatusWarning
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSkipped:
		return "skipped"
	case StatusWarning:
		return "warning"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of a single stage.
type Outcome struct {
	Stage    string
	Status   Status
	Message  string
	Err      error
	Duration time.Duration
}

// OK reports success.
func OK(format string, args ...any) Outcome {
	return Outcome{Status: StatusOK, Message: fmt.Sprintf(format, args...)}
}

// Skipped reports a stage that intentionally did nothing.
func Skipped(format string, args ...any) Outcome {
	return Outcome{Status: StatusSkipped, Message: fmt.Sprintf(format, args...)}
}

// Warning reports a stage that completed but needs the operator's attention.
func Warning(format string, args ...any) Outcome {
	return Outcome{Status: StatusWarning, Message: fmt.Sprintf(format, args...)}
}

// Failed reports a stage failure.
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Message: err.Error(), Err: err}
}

// Stage is one named step of a pipeline.
type Stage struct {
	Name        string
	Description string
	Run         func(ctx context.Context) Outcome
}

// Policy decides how a failed stage affects the rest of the run.
type Policy int

const (
	// Lenient records failures as warnings and continues.
	Lenient Policy = iota
	// Strict stops at the first failure.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "lenient"
}

// PolicyFor maps the strict flag to a Policy.
func PolicyFor(strict bool) Policy {
	if strict {
		return Strict
	}
	return Lenient
}

// Hooks lets callers observe stage progress. Nil fields are ignored.
type Hooks struct {
	OnStart  func(stage Stage)
	OnFinish func(stage Stage, outcome Outcome)
}

// Report collects the outcomes of every attempted stage.
type Report struct {
	Policy   Policy
	Outcomes []Outcome
	// Aborted is set when a failure or cancellation stopped the run.
	Aborted   bool
	AbortedAt string
}

// Attempted reports whether the named stage ran.
func (r Report) Attempted(stage string) bool {
	for _, o := range r.Outcomes {
		if o.Stage == stage {
			return true
		}
	}
	return false
}

// Outcome returns the outcome of the named stage.
func (r Report) Outcome(stage string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Stage == stage {
			return o, true
		}
	}
	return Outcome{}, false
}

// Warnings returns every outcome that needs the operator's attention.
func (r Report) Warnings() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusWarning || o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// HasFailures reports whether any stage failed.
func (r Report) HasFailures() bool {
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Run executes stages in order under policy.
//
// The returned error is non-nil only when the run was stopped early: it wraps
// ErrAborted and the failing stage's error under the Strict policy, or the
// context error on cancellation.
func Run(ctx context.Context, stages []Stage, policy Policy, hooks Hooks) (Report, error) {
	report := Report{Policy: policy}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			report.Aborted = true
			report.AbortedAt = stage.Name
			return report, fmt.Errorf("before stage '%s': %w", stage.Name, err)
		}

		if hooks.OnStart != nil {
			hooks.OnStart(stage)
		}

		start := time.Now()
		outcome := stage.Run(ctx)
		outcome.Stage = stage.Name
		outcome.Duration = time.Since(start)
		if outcome.Status == StatusFailed && outcome.Err == nil {
			outcome.Err = errors.New(outcome.Message)
		}
		report.Outcomes = append(report.Outcomes, outcome)

		switch outcome.Status {
		case StatusFailed:
			logger.Warn("stage failed", "stage", stage.Name, "policy", policy.String(), "error", outcome.Err)
		case StatusWarning:
			logger.Warn("stage warning", "stage", stage.Name, "message", outcome.Message)
		default:
			logger.Info("stage finished", "stage", stage.Name, "status", outcome.Status.String(), "message", outcome.Message)
		}

		if hooks.OnFinish != nil {
			hooks.OnFinish(stage, outcome)
		}

		if outcome.Status == StatusFailed && policy == Strict {
			report.Aborted = true
			report.AbortedAt = stage.Name
			return report, fmt.Errorf("%w at stage '%s': %w", ErrAborted, stage.Name, outcome.Err)
		}
	}

	return report, nil
}
