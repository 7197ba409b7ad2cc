// Package probe asks ffprobe for a media file's total duration. Failures are
// never surfaced as errors: an unknown duration only disables percentage
// progress.
package probe

import (
	"bytes"
	"context"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

const DefaultTimeout = 30 * time.Second

// Duration is a probed length in seconds. Known is false when ffprobe could
// not produce a usable value.
type Duration struct {
	Seconds float64
	Known   bool
}

// Unknown is the zero Duration.
var Unknown = Duration{}

// Seconds builds a known Duration. Non-finite and non-positive values are
// Unknown.
func Seconds(s float64) Duration {
	if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
		return Unknown
	}
	return Duration{Seconds: s, Known: true}
}

func (d Duration) String() string {
	if !d.Known {
		return "unknown"
	}
	return (time.Duration(d.Seconds * float64(time.Second))).Round(time.Second).String()
}

// FFprobe runs the ffprobe binary.
type FFprobe struct {
	Path    string
	Timeout time.Duration
	Logger  hclog.Logger
}

// NewFFprobe returns a prober using path (or "ffprobe" from PATH when empty).
func NewFFprobe(path string, timeout time.Duration, logger hclog.Logger) *FFprobe {
	if strings.TrimSpace(path) == "" {
		path = "ffprobe"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FFprobe{Path: path, Timeout: timeout, Logger: logger.Named("probe")}
}

// Duration returns the container duration of path, or Unknown.
func (p *FFprobe) Duration(ctx context.Context, path string) Duration {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.Path,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		p.Logger.Debug("duration probe failed", "path", path, "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return Unknown
	}

	d := ParseDuration(out)
	if !d.Known {
		p.Logger.Debug("duration probe returned no usable value", "path", path, "output", strings.TrimSpace(string(out)))
	}
	return d
}

// ParseDuration reads the first line of ffprobe's nokey output.
func ParseDuration(out []byte) Duration {
	line := strings.TrimSpace(string(out))
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	if line == "" || line == "N/A" {
		return Unknown
	}
	s, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return Unknown
	}
	return Seconds(s)
}
