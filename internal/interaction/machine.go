// Package interaction turns pointer, wheel and keyboard input into zoom,
// pan and selection changes of a viewport.
package interaction

import (
	"math"
	"sync"

	"github.com/traceviewer/tracechart/internal/observability"
	"github.com/traceviewer/tracechart/internal/timerange"
	"github.com/traceviewer/tracechart/internal/viewport"
)

// Viewport is the view state the machine drives.
type Viewport interface {
	View() timerange.TimeRange
	AbsoluteRange() int64
	SetViewRange(start, end int64) bool
	ZoomAt(centerTime int64, zoomIn bool) bool
	ZoomCenter(zoomIn bool) bool
	PanBy(direction viewport.Direction) bool
	PanTo(start int64) bool
	SetSelection(start, end int64)
}

// PointerUpRegistrar attaches a pointer-up listener outside the chart, so
// that a drag released anywhere still ends.
type PointerUpRegistrar interface {
	AddPointerUpListener(fn func(PointerEvent)) (remove func())
}

// Geometry is the plot area reported by the render surface.
type Geometry struct {
	Left  float64
	Width float64
}

// Contains reports whether x lies over the plot.
func (g Geometry) Contains(x float64) bool {
	return g.Width > 0 && x >= g.Left && x <= g.Left+g.Width
}

// Params configure a Machine.
type Params struct {
	Viewport Viewport

	// Registrar is optional; without it drags end only on events the chart
	// receives itself.
	Registrar PointerUpRegistrar

	// OnCursor is called whenever the cursor changes. Optional.
	OnCursor func(Cursor)

	Logger *observability.CoreLogger
}

// Machine is the interaction state machine of one chart.
//
// It is not safe for concurrent use; events are delivered by one thread.
type Machine struct {
	vp        Viewport
	registrar PointerUpRegistrar
	onCursor  func(Cursor)
	logger    *observability.CoreLogger
	bindings  map[string]KeyBinding

	state    State
	cursor   Cursor
	geometry Geometry
	timeAxis bool

	// lastX is the last pointer position; pointerIn reports whether it is
	// over the plot.
	lastX     float64
	pointerIn bool

	removeListener func()
}

// New returns an idle Machine over a time axis.
func New(params Params) *Machine {
	if params.Logger == nil {
		params.Logger = observability.NewNoOpLogger()
	}
	return &Machine{
		vp:        params.Viewport,
		registrar: params.Registrar,
		onCursor:  params.OnCursor,
		logger:    params.Logger,
		bindings:  keyMap(KeyBindings()),
		state:     Idle{},
		timeAxis:  true,
	}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Cursor returns the cursor to display.
func (m *Machine) Cursor() Cursor { return m.cursor }

// Geometry returns the last plot geometry.
func (m *Machine) Geometry() Geometry { return m.geometry }

// SetGeometry updates the plot area.
func (m *Machine) SetGeometry(g Geometry) {
	m.geometry = g
}

// SetTimeAxis tells whether the x axis is time; selection, wheel and
// keyboard interaction only work on time axes.
func (m *Machine) SetTimeAxis(isTime bool) {
	m.timeAxis = isTime
}

// PointerTime returns the time under the last pointer position and whether
// the pointer is over the plot.
func (m *Machine) PointerTime() (int64, bool) {
	return m.timeAtX(m.lastX), m.pointerIn
}

func (m *Machine) setCursor(c Cursor) {
	if c == m.cursor {
		return
	}
	m.cursor = c
	if m.onCursor != nil {
		m.onCursor(c)
	}
}

func (m *Machine) timeAtX(x float64) int64 {
	return timerange.TimeAt(m.vp.View(), m.geometry.Width, x-m.geometry.Left)
}

func (m *Machine) trackPointer(x float64) {
	m.lastX = x
	m.pointerIn = m.geometry.Contains(x)
}

// PointerDown starts a pan or a selection.
func (m *Machine) PointerDown(ev PointerEvent) {
	m.trackPointer(ev.X)
	if m.state.Mode() != ModeIdle {
		return
	}

	view := m.vp.View()
	wantsPan := ev.Button == ButtonMiddle ||
		(ev.Button == ButtonLeft && ev.Ctrl && !ev.Shift)

	switch {
	case wantsPan:
		if m.geometry.Width <= 0 || view.Duration() <= 0 {
			return
		}
		res := m.geometry.Width / float64(view.Duration())
		m.state = Panning{
			Anchor:     float64(view.Start) + (ev.X-m.geometry.Left)/res,
			Resolution: res,
		}
		m.setCursor(CursorGrabbing)

	case ev.Button == ButtonRight && m.timeAxis:
		anchor := m.timeAtX(ev.X)
		m.state = Selecting{Button: ButtonRight, AnchorTime: anchor, CurrentTime: anchor}
		m.setCursor(CursorColResize)

	case ev.Button == ButtonLeft && m.timeAxis:
		anchor := m.timeAtX(ev.X)
		m.state = Selecting{Button: ButtonLeft, AnchorTime: anchor, CurrentTime: anchor}
		m.vp.SetSelection(anchor, anchor)
		m.setCursor(CursorCrosshair)

	default:
		return
	}

	m.logger.Debug("interaction: drag started",
		"mode", m.state.Mode().String(), "button", ev.Button.String())
	m.attachListener()
}

// PointerMove continues a pan or a selection.
func (m *Machine) PointerMove(ev PointerEvent) {
	m.trackPointer(ev.X)

	switch s := m.state.(type) {
	case Panning:
		x := ev.X - m.geometry.Left
		start := int64(math.Round(s.Anchor - x/s.Resolution))
		m.vp.PanTo(m.clampPanStart(start))

	case Selecting:
		s.CurrentTime = m.timeAtX(ev.X)
		m.state = s
		if s.Button == ButtonLeft {
			m.vp.SetSelection(s.AnchorTime, s.CurrentTime)
		}
	}
}

// clampPanStart keeps a dragged view inside the trace.
func (m *Machine) clampPanStart(start int64) int64 {
	upper := max(0, m.vp.AbsoluteRange()-m.vp.View().Duration())
	return min(max(start, 0), upper)
}

// PointerUp ends the current drag.
//
// Both the chart and the global listener may deliver the same release;
// only the first one has an effect.
func (m *Machine) PointerUp(ev PointerEvent) {
	m.trackPointer(ev.X)

	switch s := m.state.(type) {
	case Panning:
		m.finish(ev.Ctrl)

	case Selecting:
		s.CurrentTime = m.timeAtX(ev.X)
		start, end := s.Range()
		switch s.Button {
		case ButtonRight:
			if start != end {
				m.vp.SetViewRange(start, end)
			}
		case ButtonLeft:
			m.vp.SetSelection(start, end)
		}
		m.finish(ev.Ctrl)
	}
}

// PointerLeave finalizes left-button selections and pans at the last
// pointer position clamped to the plot. Right-button drags keep waiting
// for the global release.
func (m *Machine) PointerLeave() {
	x := min(max(m.lastX, m.geometry.Left), m.geometry.Left+max(0, m.geometry.Width))
	m.pointerIn = false

	switch s := m.state.(type) {
	case Panning:
		m.finish(false)
	case Selecting:
		if s.Button == ButtonRight {
			return
		}
		m.PointerUp(PointerEvent{X: x, Button: s.Button})
		m.pointerIn = false
	}
}

// finish returns to Idle and detaches the global listener.
func (m *Machine) finish(ctrlHeld bool) {
	m.state = Idle{}
	m.detachListener()
	if ctrlHeld {
		m.setCursor(CursorGrabbing)
	} else {
		m.setCursor(CursorDefault)
	}
}

func (m *Machine) attachListener() {
	if m.registrar == nil || m.removeListener != nil {
		return
	}
	remove := m.registrar.AddPointerUpListener(m.PointerUp)
	var once sync.Once
	m.removeListener = func() { once.Do(remove) }
}

func (m *Machine) detachListener() {
	if m.removeListener == nil {
		return
	}
	m.removeListener()
	m.removeListener = nil
}

// Wheel zooms with Ctrl and pans with Shift. It reports whether the event
// was consumed.
func (m *Machine) Wheel(ev WheelEvent) bool {
	m.trackPointer(ev.X)
	if !m.timeAxis || m.state.Mode() != ModeIdle {
		return false
	}

	delta := ev.DeltaY
	if delta == 0 {
		delta = ev.DeltaX
	}
	if delta == 0 {
		return false
	}

	switch {
	case ev.Ctrl:
		m.vp.ZoomAt(m.timeAtX(ev.X), delta < 0)
		return true
	case ev.Shift:
		dir := viewport.Right
		if delta < 0 {
			dir = viewport.Left
		}
		m.vp.PanBy(dir)
		return true
	default:
		return false
	}
}

// KeyDown applies a key binding. It reports whether the key was handled.
func (m *Machine) KeyDown(ev KeyEvent) bool {
	if ev.Key == KeyControl {
		if m.state.Mode() == ModeIdle {
			m.setCursor(CursorGrabbing)
		}
		return true
	}

	binding, ok := m.bindings[ev.Key]
	if !ok || binding.Handler == nil {
		return false
	}
	if !m.timeAxis || m.state.Mode() != ModeIdle {
		return false
	}
	binding.Handler(m)
	return true
}

// KeyUp restores the cursor when Control is released.
func (m *Machine) KeyUp(ev KeyEvent) {
	if ev.Key != KeyControl || m.state.Mode() != ModeIdle {
		return
	}
	m.setCursor(CursorDefault)
}

// zoomKeyboard zooms around the pointer when it is over the plot and
// around the middle of the view otherwise.
func (m *Machine) zoomKeyboard(zoomIn bool) {
	if t, inside := m.PointerTime(); inside {
		m.vp.ZoomAt(t, zoomIn)
		return
	}
	m.vp.ZoomCenter(zoomIn)
}

// Reset abandons any drag and returns to Idle.
func (m *Machine) Reset() {
	m.state = Idle{}
	m.detachListener()
	m.pointerIn = false
	m.setCursor(CursorDefault)
}
