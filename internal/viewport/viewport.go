// Package viewport holds the visible window of a trace and moves it in
// response to zoom, pan and selection requests.
package viewport

import (
	"sync"

	"github.com/traceviewer/tracechart/internal/timerange"
)

// Options tune zoom and pan steps.
type Options struct {
	ZoomRateIn  float64
	ZoomRateOut float64
	PanFactor   float64
}

// DefaultOptions returns the standard zoom and pan rates.
func DefaultOptions() Options {
	return Options{
		ZoomRateIn:  DefaultZoomRateIn,
		ZoomRateOut: DefaultZoomRateOut,
		PanFactor:   DefaultPanFactor,
	}
}

// ChangeKind says which part of the viewport changed.
type ChangeKind int

const (
	ViewChanged ChangeKind = iota
	SelectionChanged
)

// Change is delivered to subscribers after each update.
type Change struct {
	Kind      ChangeKind
	View      timerange.TimeRange
	Selection *timerange.TimeRange
}

// Viewport is the view window and selection of one open trace.
//
// The absolute range is fixed at construction. Values are replaced, never
// mutated, and subscribers are called outside the lock.
type Viewport struct {
	mu sync.RWMutex

	absoluteRange int64
	origin        int64
	view          timerange.TimeRange
	selection     *timerange.TimeRange
	opts          Options

	nextID      int
	subscribers map[int]func(Change)
}

// New returns a viewport showing the whole trace of the given span.
//
// Views are relative to the trace start; origin is the absolute time of
// that start.
func New(absoluteRange int64, origin int64, opts Options) *Viewport {
	if opts.ZoomRateIn <= 0 || opts.ZoomRateIn >= 1 {
		opts.ZoomRateIn = DefaultZoomRateIn
	}
	if opts.ZoomRateOut <= 1 {
		opts.ZoomRateOut = DefaultZoomRateOut
	}
	if opts.PanFactor <= 0 || opts.PanFactor > 1 {
		opts.PanFactor = DefaultPanFactor
	}

	return &Viewport{
		absoluteRange: max(0, absoluteRange),
		origin:        origin,
		view:          timerange.New(0, max(0, absoluteRange), 0),
		opts:          opts,
		subscribers:   make(map[int]func(Change)),
	}
}

// AbsoluteRange is the total span of the trace.
func (v *Viewport) AbsoluteRange() int64 {
	return v.absoluteRange
}

// Origin is the absolute time of the trace start.
func (v *Viewport) Origin() int64 {
	return v.origin
}

// AbsoluteView returns the visible window in absolute time, with the
// origin as its offset.
func (v *Viewport) AbsoluteView() timerange.TimeRange {
	view := v.View()
	return timerange.TimeRange{
		Start:  v.origin + view.Start,
		End:    v.origin + view.End,
		Offset: v.origin,
	}
}

// View returns the visible window.
func (v *Viewport) View() timerange.TimeRange {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.view
}

// Selection returns the selected range, if any.
func (v *Viewport) Selection() (timerange.TimeRange, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.selection == nil {
		return timerange.TimeRange{}, false
	}
	return *v.selection, true
}

// Subscribe registers fn for changes and returns a function removing it.
func (v *Viewport) Subscribe(fn func(Change)) (unsubscribe func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subscribers[id] = fn
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.subscribers, id)
			v.mu.Unlock()
		})
	}
}

// SetViewRange replaces the visible window.
//
// The range is normalized and clamped to [0, absoluteRange]. It reports
// whether the window changed.
func (v *Viewport) SetViewRange(start, end int64) bool {
	v.mu.Lock()
	r := timerange.New(start, end, 0)
	r.Start = max(0, r.Start)
	if v.absoluteRange > 0 {
		r.End = min(r.End, v.absoluteRange)
	}
	r.End = max(r.Start, r.End)
	return v.replaceView(r)
}

// ZoomAt zooms around centerTime.
func (v *Viewport) ZoomAt(centerTime int64, zoomIn bool) bool {
	v.mu.Lock()
	r := Zoom(v.view, v.absoluteRange, centerTime, zoomIn,
		v.opts.ZoomRateIn, v.opts.ZoomRateOut)
	return v.replaceView(r)
}

// ZoomCenter zooms around the middle of the visible window.
func (v *Viewport) ZoomCenter(zoomIn bool) bool {
	view := v.View()
	return v.ZoomAt(view.Start+view.Duration()/2, zoomIn)
}

// PanBy pans one step in the given direction.
func (v *Viewport) PanBy(direction Direction) bool {
	v.mu.Lock()
	r := Pan(v.view, v.absoluteRange, direction, v.opts.PanFactor)
	return v.replaceView(r)
}

// PanTo moves the window to start keeping its duration.
func (v *Viewport) PanTo(start int64) bool {
	v.mu.Lock()
	r := clampWindow(v.view.WithStart(start), v.absoluteRange)
	return v.replaceView(r)
}

// replaceView swaps the view and notifies subscribers.
//
// Must be called with the lock held; releases it.
func (v *Viewport) replaceView(r timerange.TimeRange) bool {
	if r == v.view {
		v.mu.Unlock()
		return false
	}
	v.view = r
	change := Change{Kind: ViewChanged, View: r, Selection: v.selection}
	subs := v.snapshotSubscribers()
	v.mu.Unlock()

	notify(subs, change)
	return true
}

// SetSelection replaces the selected range.
func (v *Viewport) SetSelection(start, end int64) {
	v.mu.Lock()
	r := timerange.New(start, end, 0)
	if v.selection != nil && *v.selection == r {
		v.mu.Unlock()
		return
	}
	v.selection = &r
	change := Change{Kind: SelectionChanged, View: v.view, Selection: &r}
	subs := v.snapshotSubscribers()
	v.mu.Unlock()

	notify(subs, change)
}

// ClearSelection removes the selection.
func (v *Viewport) ClearSelection() {
	v.mu.Lock()
	if v.selection == nil {
		v.mu.Unlock()
		return
	}
	v.selection = nil
	change := Change{Kind: SelectionChanged, View: v.view}
	subs := v.snapshotSubscribers()
	v.mu.Unlock()

	notify(subs, change)
}

func (v *Viewport) snapshotSubscribers() []func(Change) {
	subs := make([]func(Change), 0, len(v.subscribers))
	for _, fn := range v.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Change), change Change) {
	for _, fn := range subs {
		fn(change)
	}
}
