package converter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedInput marks a file whose extension is not a known video
// container. Such files never reach the engine.
var ErrUnsupportedInput = errors.New("unsupported input format")

// EngineError reports a failed media engine invocation.
type EngineError struct {
	Input  string
	Err    error
	Stderr string
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("engine failed on %s: %v", e.Input, e.Err)
	if tail := lastLines(e.Stderr, 3); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *EngineError) Unwrap() error { return e.Err }

// FilesystemError reports an output directory that could not be created or
// an input that could not be read.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

func lastLines(s string, n int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, " | ")
}
