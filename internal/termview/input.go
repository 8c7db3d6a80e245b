package termview

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/traceviewer/tracechart/internal/interaction"
)

// terminalKeys maps bubbletea key names to the names key bindings use.
var terminalKeys = map[string]string{
	"up":    "ArrowUp",
	"down":  "ArrowDown",
	"left":  "ArrowLeft",
	"right": "ArrowRight",
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "?":
		m.help = !m.help
		return m, nil
	}

	if m.help {
		if key == "esc" {
			m.help = false
		}
		return m, nil
	}

	switch key {
	case "esc":
		m.view.Viewport().ClearSelection()
	case "r":
		m.view.Viewport().SetViewRange(0, m.view.Viewport().AbsoluteRange())
	default:
		if name, ok := terminalKeys[key]; ok {
			key = name
		}
		m.view.KeyDown(interaction.KeyEvent{Key: key})
	}
	m.redraw()
	return m, nil
}

// handleMouse maps terminal mouse events onto pointer and wheel events.
//
// Releases outside the plot go to the registered outside listeners, like a
// document-level listener in a browser would receive them.
func (m *Model) handleMouse(ev tea.MouseEvent) {
	if m.help {
		return
	}

	inside := m.inPlot(ev.X, ev.Y)
	mods := interaction.Modifiers{Ctrl: ev.Ctrl, Shift: ev.Shift}
	pe := interaction.PointerEvent{
		X:         float64(ev.X),
		Button:    mouseButton(ev.Button),
		Modifiers: mods,
	}

	switch {
	case ev.IsWheel():
		if !inside {
			return
		}
		m.trackPointer(ev.X, true)
		we := interaction.WheelEvent{X: pe.X, Modifiers: mods}
		switch ev.Button {
		case tea.MouseButtonWheelUp:
			we.DeltaY = -1
		case tea.MouseButtonWheelDown:
			we.DeltaY = 1
		case tea.MouseButtonWheelLeft:
			we.DeltaX = -1
		case tea.MouseButtonWheelRight:
			we.DeltaX = 1
		}
		m.view.Wheel(we)

	case ev.Action == tea.MouseActionPress:
		if !inside {
			return
		}
		m.trackPointer(ev.X, true)
		m.view.PointerDown(pe)

	case ev.Action == tea.MouseActionRelease:
		if inside {
			m.trackPointer(ev.X, true)
			m.view.PointerUp(pe)
		} else {
			m.leave()
			m.releases.release(pe)
		}

	case ev.Action == tea.MouseActionMotion:
		if inside {
			m.trackPointer(ev.X, true)
			m.view.PointerMove(pe)
		} else {
			m.leave()
		}
	}
	m.redraw()
}

func (m *Model) trackPointer(x int, inside bool) {
	m.pointerX = x
	m.pointerIn = inside
}

// leave reports the pointer leaving the plot once.
func (m *Model) leave() {
	if !m.pointerIn {
		return
	}
	m.pointerIn = false
	m.view.PointerLeave()
}

// inPlot reports whether the cell lies over the plot area.
func (m *Model) inPlot(x, y int) bool {
	top := titleHeight
	bottom := titleHeight + m.chart.Origin().Y
	return m.geometry.Contains(float64(x)) && y >= top && y < bottom
}

func mouseButton(b tea.MouseButton) interaction.Button {
	switch b {
	case tea.MouseButtonLeft:
		return interaction.ButtonLeft
	case tea.MouseButtonMiddle:
		return interaction.ButtonMiddle
	case tea.MouseButtonRight:
		return interaction.ButtonRight
	default:
		return interaction.ButtonNone
	}
}

// releaseRegistrar hands releases outside the plot to the chart while a
// drag is in progress.
type releaseRegistrar struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(interaction.PointerEvent)
}

func (r *releaseRegistrar) AddPointerUpListener(
	fn func(interaction.PointerEvent),
) (remove func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listeners == nil {
		r.listeners = make(map[int]func(interaction.PointerEvent))
	}
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
}

func (r *releaseRegistrar) release(ev interaction.PointerEvent) {
	r.mu.Lock()
	fns := make([]func(interaction.PointerEvent), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
