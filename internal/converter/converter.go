// Package converter turns one video file into one audio file by delegating
// the codec work to an external engine, and classifies the result.
package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"vid2audio/internal/config"
	"vid2audio/internal/probe"
	"vid2audio/internal/progress"
	"vid2audio/pkg/mediafmt"
)

// DurationProber reports a media file's duration, or probe.Unknown.
type DurationProber interface {
	Duration(ctx context.Context, path string) probe.Duration
}

// ProgressFunc receives progress for one input. Percent 100 is only sent
// after the engine returned successfully.
type ProgressFunc func(input string, u progress.Update)

// Converter holds collaborators only; all per-call settings arrive through
// the config.Conversion argument of Convert.
type Converter struct {
	Engine     Engine
	Prober     DurationProber
	Logger     hclog.Logger
	Interval   time.Duration
	OnProgress ProgressFunc
	// Remove deletes the original after success. Defaults to os.Remove.
	Remove func(path string) error
}

// New returns a Converter with the given engine and prober.
func New(engine Engine, prober DurationProber, logger hclog.Logger) *Converter {
	return &Converter{Engine: engine, Prober: prober, Logger: logger}
}

// Convert processes a single input file. Every error is folded into the
// returned Outcome; nothing is retried.
func (c *Converter) Convert(ctx context.Context, inputPath string, cfg config.Conversion) Outcome {
	started := time.Now()
	out := c.convert(ctx, inputPath, cfg)
	out.Elapsed = time.Since(started)
	return out
}

func (c *Converter) convert(ctx context.Context, inputPath string, cfg config.Conversion) Outcome {
	log := c.logger().With("input", inputPath)

	ext := mediafmt.Ext(inputPath)
	if !mediafmt.IsSupportedInput(ext) {
		return Failed(inputPath, fmt.Errorf("%w: %q", ErrUnsupportedInput, filepath.Base(inputPath)))
	}
	format, err := mediafmt.ParseFormat(string(cfg.OutputFormat))
	if err != nil {
		return Failed(inputPath, fmt.Errorf("%w: %q", config.ErrUnsupportedOutput, cfg.OutputFormat))
	}
	cfg.OutputFormat = format

	info, err := os.Stat(inputPath)
	if err != nil {
		return Failed(inputPath, &FilesystemError{Op: "stat input", Path: inputPath, Err: err})
	}
	if !info.Mode().IsRegular() {
		return Failed(inputPath, &FilesystemError{Op: "read input", Path: inputPath, Err: errors.New("not a regular file")})
	}

	outputPath, err := ResolveOutputPath(inputPath, cfg.OutputFormat, cfg.OutputDir, cfg.SanitizeNames)
	if err != nil {
		return Failed(inputPath, err)
	}

	if _, err := os.Stat(outputPath); err == nil && !cfg.Overwrite {
		return SkippedExists(inputPath, outputPath)
	}

	if err := ctx.Err(); err != nil {
		return Failed(inputPath, err)
	}

	duration := probe.Unknown
	if c.Prober != nil {
		duration = c.Prober.Duration(ctx, inputPath)
	}
	log.Debug("starting engine", "output", outputPath, "duration", duration.String())

	err = c.runEngine(ctx, inputPath, duration, Job{
		Input:      inputPath,
		Output:     outputPath,
		Format:     cfg.OutputFormat,
		Bitrate:    cfg.Bitrate,
		SampleRate: cfg.SampleRate,
		Overwrite:  cfg.Overwrite,
	})
	if err != nil {
		var engineErr *EngineError
		if !errors.As(err, &engineErr) {
			err = &EngineError{Input: inputPath, Err: err}
		}
		out := Failed(inputPath, err)
		out.Output = outputPath
		out.Duration = duration
		return out
	}

	c.report(inputPath, progress.Update{Percent: 100})

	out := Succeeded(inputPath, outputPath)
	out.Duration = duration
	if cfg.DeleteOriginal {
		if err := c.remove(inputPath); err != nil {
			out.DeleteErr = err
			log.Warn("could not delete original", "error", err)
		}
	}
	return out
}

// runEngine blocks on the engine while an estimator reports progress. The
// estimator is stopped before runEngine returns, whatever the result.
func (c *Converter) runEngine(ctx context.Context, inputPath string, duration probe.Duration, job Job) (err error) {
	if c.Engine == nil {
		return errors.New("no media engine configured")
	}

	est := progress.Start(duration, c.Interval, func(u progress.Update) {
		c.report(inputPath, u)
	})
	defer est.Stop()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return c.Engine.Convert(ctx, job)
}

func (c *Converter) report(input string, u progress.Update) {
	if c.OnProgress != nil {
		c.OnProgress(input, u)
	}
}

func (c *Converter) remove(path string) error {
	if c.Remove != nil {
		return c.Remove(path)
	}
	return os.Remove(path)
}

func (c *Converter) logger() hclog.Logger {
	if c.Logger == nil {
		return hclog.NewNullLogger()
	}
	return c.Logger
}
