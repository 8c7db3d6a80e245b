// Package scheduler runs delayed callbacks behind an interface so that
// tests can control time.
package scheduler

import (
	"sync"
	"time"
)

// Handle is a scheduled callback.
type Handle interface {
	// Cancel stops the callback if it has not run yet.
	//
	// Returns true if the call prevented the callback from running.
	Cancel() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	// AfterFunc runs f in its own goroutine after d elapses.
	AfterFunc(d time.Duration, f func()) Handle

	// Now returns the scheduler's current time.
	Now() time.Time
}

// System is a Scheduler backed by the runtime timers.
func System() Scheduler {
	return systemScheduler{}
}

type systemScheduler struct{}

type timerHandle struct {
	timer *time.Timer
}

func (h timerHandle) Cancel() bool {
	return h.timer.Stop()
}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Handle {
	return timerHandle{time.AfterFunc(d, f)}
}

func (systemScheduler) Now() time.Time {
	return time.Now()
}

// Debouncer coalesces bursts of triggers into one trailing call.
//
// Each Trigger restarts the quiet period; the most recent function runs
// once the period elapses without another trigger.
type Debouncer struct {
	mu      sync.Mutex
	sched   Scheduler
	delay   time.Duration
	pending Handle
	seq     uint64
	stopped bool
}

// NewDebouncer returns a Debouncer with the given quiet period.
func NewDebouncer(sched Scheduler, delay time.Duration) *Debouncer {
	if sched == nil {
		sched = System()
	}
	return &Debouncer{sched: sched, delay: delay}
}

// Trigger schedules f, replacing any pending call.
func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.pending != nil {
		d.pending.Cancel()
	}

	d.seq++
	seq := d.seq
	d.pending = d.sched.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A later trigger or Stop may have raced with the timer.
		if d.stopped || d.seq != seq {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()

		f()
	})
}

// Pending reports whether a call is waiting for its quiet period.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Cancel drops the pending call, if any. Later triggers still run.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.pending != nil {
		d.pending.Cancel()
		d.pending = nil
	}
}

// Stop cancels any pending call and makes future triggers no-ops.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.pending != nil {
		d.pending.Cancel()
		d.pending = nil
	}
}
