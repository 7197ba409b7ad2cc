// Package progress estimates conversion progress from wall-clock time while
// the external engine call blocks.
package progress

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"vid2audio/internal/probe"
)

const (
	DefaultInterval = 500 * time.Millisecond
	// MaxEstimate is the ceiling for estimates; only the caller reports 100.
	MaxEstimate = 99
)

// Update is one progress sample. Indeterminate updates carry no percent.
type Update struct {
	Percent       int
	Indeterminate bool
	Elapsed       time.Duration
}

var live atomic.Int64

// Live reports how many estimator goroutines are currently running.
func Live() int {
	return int(live.Load())
}

// Estimator reports progress for a single conversion.
type Estimator struct {
	total    probe.Duration
	interval time.Duration
	now      func() time.Time
	report   func(Update)

	start time.Time
	last  atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Start launches an estimator that calls report every interval until Stop.
func Start(total probe.Duration, interval time.Duration, report func(Update)) *Estimator {
	return start(total, interval, time.Now, report)
}

func start(total probe.Duration, interval time.Duration, now func() time.Time, report func(Update)) *Estimator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if report == nil {
		report = func(Update) {}
	}
	e := &Estimator{
		total:    total,
		interval: interval,
		now:      now,
		report:   report,
		start:    now(),
		stop:     make(chan struct{}),
	}
	e.last.Store(-1)

	live.Add(1)
	e.wg.Add(1)
	go e.loop()
	return e
}

// Stop cancels the estimator and waits for its goroutine to exit. It is safe
// to call more than once.
func (e *Estimator) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
	e.wg.Wait()
}

// Last returns the highest percent reported so far, or -1.
func (e *Estimator) Last() int {
	return int(e.last.Load())
}

func (e *Estimator) loop() {
	defer e.wg.Done()
	defer live.Add(-1)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
		}

		// A stop racing with a tick must win.
		select {
		case <-e.stop:
			return
		default:
		}
		e.tick()
	}
}

func (e *Estimator) tick() {
	elapsed := e.now().Sub(e.start)
	if !e.total.Known {
		e.report(Update{Indeterminate: true, Elapsed: elapsed})
		return
	}

	pct := Percent(elapsed, e.total)
	if prev := int(e.last.Load()); pct < prev {
		pct = prev
	}
	e.last.Store(int64(pct))
	e.report(Update{Percent: pct, Elapsed: elapsed})
}

// Percent returns floor(elapsed/total*100) clamped to [0, MaxEstimate].
func Percent(elapsed time.Duration, total probe.Duration) int {
	if !total.Known || elapsed <= 0 {
		return 0
	}
	pct := int(math.Floor(elapsed.Seconds() / total.Seconds * 100))
	if pct > MaxEstimate {
		return MaxEstimate
	}
	if pct < 0 {
		return 0
	}
	return pct
}
