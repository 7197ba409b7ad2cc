// Package processor runs a batch of candidates through the converter and
// aggregates their outcomes.
package processor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"vid2audio/internal/converter"
	"vid2audio/internal/progress"
)

// Run converts candidates in order and returns the summary. The conversion
// settings are validated before any candidate runs; after that a failing file
// never stops the batch. With more than one worker files run concurrently,
// but outcomes are aggregated and logged in candidate order.
func Run(ctx context.Context, candidates []string, conv Converter, opts Options, updates chan<- ProgressUpdate) (Summary, error) {
	conversion := opts.Conversion
	if err := conversion.Validate(); err != nil {
		return Summary{}, fmt.Errorf("invalid conversion settings: %w", err)
	}
	opts.Conversion = conversion

	summary := Summary{Total: len(candidates)}
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if len(candidates) == 0 {
		return summary, nil
	}

	if updates != nil {
		updates <- ProgressUpdate{TotalDelta: len(candidates)}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	jobs := make(chan Job)
	results := make(chan Result)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, jobs, results, conv, opts, updates)
		}()
	}

	outcomes := make([]converter.Outcome, len(candidates))
	filled := make([]bool, len(candidates))

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		next := 0
		for res := range results {
			outcomes[res.Index] = res.Outcome
			filled[res.Index] = true
			for next < len(outcomes) && filled[next] {
				finish(ctx, log, opts.Recorder, &summary, outcomes[next])
				next++
			}
		}
	}()

	go func() {
		defer close(jobs)
		for i, path := range candidates {
			select {
			case jobs <- Job{Index: i, Path: path}:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)
	<-collectorDone

	// Candidates never handed out because the batch was interrupted.
	for i, ok := range filled {
		if ok {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		outcomes[i] = converter.Failed(candidates[i], err)
		finish(ctx, log, opts.Recorder, &summary, outcomes[i])
	}

	summary.Outcomes = outcomes
	return summary, nil
}

func worker(ctx context.Context, jobs <-chan Job, results chan<- Result, conv Converter, opts Options, updates chan<- ProgressUpdate) {
	for job := range jobs {
		if updates != nil {
			updates <- ProgressUpdate{Path: job.Path, Started: true}
		}

		out := conv.Convert(ctx, job.Path, opts.Conversion)

		if updates != nil {
			updates <- ProgressUpdate{Path: job.Path, Finished: true, Status: out.Status}
		}
		results <- Result{Index: job.Index, Outcome: out}
	}
}

// finish logs, records and counts one outcome.
func finish(ctx context.Context, log hclog.Logger, rec Recorder, summary *Summary, out converter.Outcome) {
	switch out.Status {
	case converter.StatusSucceeded:
		summary.Succeeded++
		if info, err := os.Stat(out.Output); err == nil {
			summary.OutputBytes += info.Size()
		}
		log.Info("converted", "input", out.Input, "output", out.Output, "elapsed", out.Elapsed.Round(time.Millisecond))
	case converter.StatusSkippedExists:
		summary.Skipped++
		log.Warn("output exists, skipping", "input", out.Input, "output", out.Output)
	default:
		summary.Failed++
		log.Error("conversion failed", "input", out.Input, "reason", out.Reason(), "error", out.Err)
	}

	if rec != nil {
		// The journal must still see outcomes of an interrupted batch.
		if err := rec.Record(context.WithoutCancel(ctx), out); err != nil {
			log.Warn("could not record outcome", "input", out.Input, "error", err)
		}
	}
}

// ProgressSink adapts the converter's progress callback onto updates.
// Estimator ticks are dropped when the channel is full; completion is not.
func ProgressSink(updates chan<- ProgressUpdate) converter.ProgressFunc {
	if updates == nil {
		return nil
	}
	return func(input string, u progress.Update) {
		msg := ProgressUpdate{Path: input, Percent: u.Percent, Indeterminate: u.Indeterminate}
		if u.Percent >= 100 {
			updates <- msg
			return
		}
		select {
		case updates <- msg:
		default:
		}
	}
}
