// Package deps reports whether the external tools and directories a batch
// needs are usable before any file is touched.
package deps

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"vid2audio/internal/config"
)

// Requirement names an external binary.
type Requirement struct {
	Name     string
	Command  string
	Purpose  string
	Optional bool
}

// Status is the result of one check. Resolved is the absolute binary path
// when the command was found.
type Status struct {
	Name      string
	Command   string
	Resolved  string
	Optional  bool
	Available bool
	Detail    string
}

// Requirements lists the binaries the configured engine needs. ffprobe only
// feeds progress estimates, so it is optional.
func Requirements(cfg config.Engine) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegPath, Purpose: "audio extraction"},
		{Name: "FFprobe", Command: cfg.FFprobePath, Purpose: "duration probing", Optional: true},
	}
}

// CheckBinaries looks every requirement up on PATH.
func CheckBinaries(reqs []Requirement) []Status {
	out := make([]Status, len(reqs))
	for i, req := range reqs {
		out[i] = check(req)
	}
	return out
}

func check(req Requirement) Status {
	st := Status{Name: req.Name, Command: strings.TrimSpace(req.Command), Optional: req.Optional}
	if st.Command == "" {
		st.Detail = "command not configured"
		return st
	}
	resolved, err := exec.LookPath(st.Command)
	if err != nil {
		st.Detail = fmt.Sprintf("%q not found; needed for %s", st.Command, req.Purpose)
		return st
	}
	st.Resolved = resolved
	st.Available = true
	return st
}

// Missing joins one error per unavailable required entry.
func Missing(statuses []Status) error {
	var errs []error
	for _, st := range statuses {
		if !st.Available && !st.Optional {
			errs = append(errs, fmt.Errorf("%s: %s", st.Name, st.Detail))
		}
	}
	return errors.Join(errs...)
}
