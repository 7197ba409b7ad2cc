package converter

import (
	"context"
	"errors"
	"time"

	"vid2audio/internal/config"
	"vid2audio/internal/probe"
)

// Status is the terminal classification of one conversion attempt.
type Status int

const (
	StatusSucceeded Status = iota
	StatusSkippedExists
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusSkippedExists:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is produced exactly once per candidate and never mutated afterwards.
type Outcome struct {
	Input  string
	Output string
	Status Status
	// Err is set only for StatusFailed.
	Err error
	// DeleteErr records a failed best-effort removal of the original. It never
	// changes Status.
	DeleteErr error
	Duration  probe.Duration
	Elapsed   time.Duration
}

// Succeeded builds a success outcome.
func Succeeded(input, output string) Outcome {
	return Outcome{Input: input, Output: output, Status: StatusSucceeded}
}

// SkippedExists builds the outcome for an existing target with overwrite off.
func SkippedExists(input, output string) Outcome {
	return Outcome{Input: input, Output: output, Status: StatusSkippedExists}
}

// Failed builds a failure outcome.
func Failed(input string, err error) Outcome {
	return Outcome{Input: input, Status: StatusFailed, Err: err}
}

// Reason returns a short machine-friendly classification of a failure.
func (o Outcome) Reason() string {
	if o.Status != StatusFailed {
		return ""
	}
	var engineErr *EngineError
	var fsErr *FilesystemError
	switch {
	case errors.Is(o.Err, ErrUnsupportedInput):
		return "unsupported_input"
	case errors.Is(o.Err, config.ErrUnsupportedOutput):
		return "unsupported_output"
	case errors.Is(o.Err, context.Canceled):
		return "canceled"
	case errors.As(o.Err, &engineErr):
		return "engine_error"
	case errors.As(o.Err, &fsErr):
		return "filesystem_error"
	default:
		return "error"
	}
}
