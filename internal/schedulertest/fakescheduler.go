package schedulertest

import (
	"sort"
	"sync"
	"time"

	"github.com/traceviewer/tracechart/internal/scheduler"
)

// FakeScheduler is a Scheduler driven by a virtual clock.
//
// Callbacks run synchronously inside Advance, in due-time order, so tests
// never need to sleep.
type FakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	timers []*fakeTimer
}

type fakeTimer struct {
	id       int
	due      time.Time
	f        func()
	sched    *FakeScheduler
	canceled bool
	fired    bool
}

// Prove we implement the Scheduler interface.
var _ scheduler.Scheduler = &FakeScheduler{}

func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{now: time.Unix(0, 0)}
}

func (s *FakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *FakeScheduler) AfterFunc(d time.Duration, f func()) scheduler.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &fakeTimer{id: s.nextID, due: s.now.Add(d), f: f, sched: s}
	s.nextID++
	s.timers = append(s.timers, t)
	return t
}

func (t *fakeTimer) Cancel() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()

	if t.fired || t.canceled {
		return false
	}
	t.canceled = true
	return true
}

// Pending returns the number of callbacks that have neither run nor been
// canceled.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.timers {
		if !t.fired && !t.canceled {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, running every callback that
// becomes due.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		t := s.popDue(target)
		if t == nil {
			break
		}
		t.f()
	}

	s.mu.Lock()
	s.now = target
	s.mu.Unlock()
}

// popDue marks the earliest due timer as fired and returns it.
func (s *FakeScheduler) popDue(target time.Time) *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.fired && !t.canceled {
			live = append(live, t)
		}
	}
	s.timers = live

	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].due.Equal(s.timers[j].due) {
			return s.timers[i].id < s.timers[j].id
		}
		return s.timers[i].due.Before(s.timers[j].due)
	})

	if len(s.timers) == 0 || s.timers[0].due.After(target) {
		return nil
	}

	t := s.timers[0]
	t.fired = true
	s.now = t.due
	return t
}
