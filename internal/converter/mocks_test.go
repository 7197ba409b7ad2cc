package converter

import (
	"context"
	"os"
	"sync"

	"vid2audio/internal/probe"
)

type stubEngine struct {
	mu        sync.Mutex
	calls     int
	jobs      []Job
	ConvertFn func(ctx context.Context, job Job) error
}

func (s *stubEngine) Convert(ctx context.Context, job Job) error {
	s.mu.Lock()
	s.calls++
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	if s.ConvertFn != nil {
		return s.ConvertFn(ctx, job)
	}
	return os.WriteFile(job.Output, []byte("audio:"+job.Input), 0o644)
}

func (s *stubEngine) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubProber struct {
	d probe.Duration
}

func (s stubProber) Duration(context.Context, string) probe.Duration {
	return s.d
}
