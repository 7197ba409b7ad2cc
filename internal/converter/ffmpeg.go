package converter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"vid2audio/pkg/mediafmt"
)

// Job is one engine invocation.
type Job struct {
	Input      string
	Output     string
	Format     mediafmt.Format
	Bitrate    string
	SampleRate int
	Overwrite  bool
}

// Engine performs the actual transcoding. Convert blocks until the engine
// exits; a nil error means exit status 0.
type Engine interface {
	Convert(ctx context.Context, job Job) error
}

// FFmpeg runs the ffmpeg binary.
type FFmpeg struct {
	Path string
	// Timeout bounds a single conversion; zero means no limit.
	Timeout time.Duration
}

// NewFFmpeg returns an engine using path (or "ffmpeg" from PATH when empty).
func NewFFmpeg(path string, timeout time.Duration) *FFmpeg {
	if strings.TrimSpace(path) == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path, Timeout: timeout}
}

// Args builds the ffmpeg argument list for job.
func (f *FFmpeg) Args(job Job) []string {
	overwrite := "-n"
	if job.Overwrite {
		overwrite = "-y"
	}
	return []string{
		"-i", job.Input,
		"-vn",
		"-acodec", job.Format.Codec(),
		"-ab", job.Bitrate,
		"-ar", strconv.Itoa(job.SampleRate),
		overwrite,
		"-loglevel", "error",
		job.Output,
	}
}

// Convert runs ffmpeg and returns an *EngineError on failure.
func (f *FFmpeg) Convert(ctx context.Context, job Job) error {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.Path, f.Args(job)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return &EngineError{Input: job.Input, Err: err, Stderr: stderr.String()}
	}
	return nil
}

// CheckInstalled runs "ffmpeg -version" and returns its first line.
func (f *FFmpeg) CheckInstalled(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, f.Path, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("%s -version: %w", f.Path, err)
	}
	first := strings.TrimSpace(string(out))
	if idx := strings.IndexByte(first, '\n'); idx > 0 {
		first = first[:idx]
	}
	return first, nil
}
