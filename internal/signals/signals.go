// Package signals carries named events between chart instances that show
// the same experiment.
package signals

import "sync"

// Name identifies a signal.
type Name string

const (
	ViewportChanged  Name = "viewportChanged"
	SelectionChanged Name = "selectionChanged"
	SeriesToggled    Name = "seriesToggled"
)

// Range is a time range carried by a signal, in absolute nanoseconds.
type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Payload is the body of a signal.
type Payload struct {
	ExperimentID string `json:"experimentId"`

	// TimeRange is absent for cleared selections.
	TimeRange *Range `json:"timeRange,omitempty"`

	// SeriesIDs is set for SeriesToggled.
	SeriesIDs []int64 `json:"seriesIds,omitempty"`
}

// Signal is one published event.
type Signal struct {
	Name    Name    `json:"signal"`
	Payload Payload `json:"payload"`

	// Sender identifies the publisher so it can ignore its own signals.
	Sender string `json:"sender,omitempty"`
}

// Bus delivers signals synchronously to subscribers.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
}

type subscription struct {
	name Name // empty matches every signal
	fn   func(Signal)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscription)}
}

// Subscribe calls fn for every signal called name.
func (b *Bus) Subscribe(name Name, fn func(Signal)) (unsubscribe func()) {
	return b.add(subscription{name: name, fn: fn})
}

// SubscribeAll calls fn for every signal.
func (b *Bus) SubscribeAll(fn func(Signal)) (unsubscribe func()) {
	return b.add(subscription{fn: fn})
}

func (b *Bus) add(s subscription) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = s
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers s to matching subscribers on the calling goroutine.
func (b *Bus) Publish(s Signal) {
	b.mu.RLock()
	targets := make([]func(Signal), 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.name == "" || sub.name == s.Name {
			targets = append(targets, sub.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range targets {
		fn(s)
	}
}
