package processor

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"vid2audio/internal/config"
	"vid2audio/internal/converter"
)

// Converter converts one candidate. *converter.Converter satisfies it.
type Converter interface {
	Convert(ctx context.Context, inputPath string, cfg config.Conversion) converter.Outcome
}

// Recorder persists outcomes, e.g. the history journal.
type Recorder interface {
	Record(ctx context.Context, out converter.Outcome) error
}

type Options struct {
	Conversion config.Conversion
	Workers    int
	Recorder   Recorder
	Logger     hclog.Logger
}

type Job struct {
	Index int
	Path  string
}

type Result struct {
	Index   int
	Outcome converter.Outcome
}

type Summary struct {
	Total       int
	Succeeded   int
	Skipped     int
	Failed      int
	OutputBytes int64
	Outcomes    []converter.Outcome
}

// ProgressUpdate is sent to the UI. Started and Finished bracket one file;
// in between, Percent or Indeterminate ticks describe the running engine.
type ProgressUpdate struct {
	Path          string
	TotalDelta    int
	Started       bool
	Finished      bool
	Status        converter.Status
	Percent       int
	Indeterminate bool
}
