// Package logging builds the hclog logger that is injected into the converter
// and batch runner. The sink is opened before a batch and closed after it.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Options describes logger construction parameters.
type Options struct {
	Name   string
	Level  string
	Format string
	// File is appended to when set. It always receives every line.
	File string
	// Console receives log lines too; nil disables console output.
	Console io.Writer
	Color   bool
}

// Sink owns the logger and the file it writes to.
type Sink struct {
	Logger hclog.Logger

	mu   sync.Mutex
	file *os.File
}

// New opens the file sink (creating parent directories) and returns a Sink.
func New(opts Options) (*Sink, error) {
	var writers []io.Writer
	if opts.Console != nil {
		writers = append(writers, opts.Console)
	}

	s := &Sink{}
	if path := strings.TrimSpace(opts.File); path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("ensure log directory: %w", err)
			}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		s.file = f
		writers = append(writers, f)
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	name := opts.Name
	if name == "" {
		name = "vid2audio"
	}
	color := hclog.ColorOff
	// Colors would leak escape codes into the file sink.
	if opts.Color && s.file == nil {
		color = hclog.AutoColor
	}

	s.Logger = hclog.New(&hclog.LoggerOptions{
		Name:            name,
		Level:           ParseLevel(opts.Level),
		Output:          out,
		JSONFormat:      strings.EqualFold(strings.TrimSpace(opts.Format), "json"),
		Color:           color,
		TimeFormat:      "2006-01-02 15:04:05",
		IncludeLocation: false,
	})
	return s, nil
}

// ParseLevel maps a level name onto hclog, defaulting to info.
func ParseLevel(level string) hclog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return hclog.Trace
	case "debug":
		return hclog.Debug
	case "warn", "warning":
		return hclog.Warn
	case "error":
		return hclog.Error
	default:
		return hclog.Info
	}
}

// Close flushes and closes the file sink.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
