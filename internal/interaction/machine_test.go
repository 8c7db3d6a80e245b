package interaction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traceviewer/tracechart/internal/interaction"
	"github.com/traceviewer/tracechart/internal/observabilitytest"
	"github.com/traceviewer/tracechart/internal/timerange"
	"github.com/traceviewer/tracechart/internal/viewport"
)

// fakeRegistrar records listener registrations.
type fakeRegistrar struct {
	listeners map[int]func(interaction.PointerEvent)
	next      int
	adds      int
	removes   int
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{listeners: make(map[int]func(interaction.PointerEvent))}
}

func (r *fakeRegistrar) AddPointerUpListener(fn func(interaction.PointerEvent)) func() {
	id := r.next
	r.next++
	r.adds++
	r.listeners[id] = fn
	return func() {
		r.removes++
		delete(r.listeners, id)
	}
}

// release simulates a pointer-up outside the chart.
func (r *fakeRegistrar) release(ev interaction.PointerEvent) {
	for _, fn := range r.listeners {
		fn(ev)
	}
}

type fixture struct {
	vp        *viewport.Viewport
	m         *interaction.Machine
	registrar *fakeRegistrar
	cursors   []interaction.Cursor
}

// setup returns a machine over a 10_000 unit trace drawn 100px wide at
// x=10, so x=10+n is time n*100.
func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		vp:        viewport.New(10_000, 0, viewport.DefaultOptions()),
		registrar: newFakeRegistrar(),
	}
	f.m = interaction.New(interaction.Params{
		Viewport:  f.vp,
		Registrar: f.registrar,
		OnCursor:  func(c interaction.Cursor) { f.cursors = append(f.cursors, c) },
		Logger:    observabilitytest.NewTestLogger(t),
	})
	f.m.SetGeometry(interaction.Geometry{Left: 10, Width: 100})
	return f
}

func at(x float64, b interaction.Button) interaction.PointerEvent {
	return interaction.PointerEvent{X: x, Button: b}
}

func TestRightDrag_ZoomsToRange(t *testing.T) {
	f := setup(t)

	f.m.PointerDown(at(30, interaction.ButtonRight))
	assert.Equal(t, interaction.CursorColResize, f.m.Cursor())
	f.m.PointerMove(at(50, interaction.ButtonRight))
	sel, ok := f.m.State().(interaction.Selecting)
	require.True(t, ok)
	assert.Equal(t, int64(2_000), sel.AnchorTime)
	assert.Equal(t, int64(4_000), sel.CurrentTime)
	assert.Equal(t, timerange.New(0, 10_000, 0), f.vp.View(), "view waits for release")

	f.m.PointerUp(at(70, interaction.ButtonRight))

	assert.Equal(t, timerange.New(2_000, 6_000, 0), f.vp.View())
	assert.Equal(t, interaction.ModeIdle, f.m.State().Mode())
	assert.Equal(t, interaction.CursorDefault, f.m.Cursor())
	assert.Equal(t, 1, f.registrar.adds)
	assert.Equal(t, 1, f.registrar.removes)
}

func TestRightDrag_BackwardsIsNormalized(t *testing.T) {
	f := setup(t)

	f.m.PointerDown(at(90, interaction.ButtonRight))
	f.m.PointerUp(at(40, interaction.ButtonRight))

	assert.Equal(t, timerange.New(3_000, 8_000, 0), f.vp.View())
}

func TestRightDrag_ZeroWidthIsNoOp(t *testing.T) {
	f := setup(t)

	f.m.PointerDown(at(40, interaction.ButtonRight))
	f.m.PointerUp(at(40, interaction.ButtonRight))

	assert.Equal(t, timerange.New(0, 10_000, 0), f.vp.View())
	assert.Equal(t, 1, f.registrar.removes)
}

func TestRightDrag_ReleasedOutsideChart(t *testing.T) {
	f := setup(t)

	f.m.PointerDown(at(30, interaction.ButtonRight))
	f.m.PointerMove(at(90, interaction.ButtonRight))
	f.m.PointerLeave()
	assert.Equal(t, interaction.ModeSelecting, f.m.State().Mode(), "right drags survive leaving")

	f.registrar.release(at(500, interaction.ButtonRight))
	f.m.PointerUp(at(20, interaction.ButtonRight))

	assert.Equal(t, timerange.New(2_000, 10_000, 0), f.vp.View())
	assert.Equal(t, 1, f.registrar.adds)
	assert.Equal(t, 1, f.registrar.removes)
	assert.Empty(t, f.registrar.listeners)
}

func TestRightDrag_DisabledOnCategoryAxis(t *testing.T) {
	f := setup(t)
	f.m.SetTimeAxis(false)

	f.m.PointerDown(at(30, interaction.ButtonRight))

	assert.Equal(t, interaction.ModeIdle, f.m.State().Mode())
	assert.Zero(t, f.registrar.adds)
}

func TestMiddleDrag_Pans(t *testing.T) {
	f := setup(t)
	f.vp.SetViewRange(2_000, 4_000)

	f.m.PointerDown(at(60, interaction.ButtonMiddle))
	assert.Equal(t, interaction.CursorGrabbing, f.m.Cursor())
	f.m.PointerMove(at(35, interaction.ButtonMiddle))

	assert.Equal(t, timerange.New(2_500, 4_500, 0), f.vp.View())

	f.m.PointerMove(at(1_000, interaction.ButtonMiddle))
	assert.Equal(t, timerange.New(0, 2_000, 0), f.vp.View())

	f.m.PointerMove(at(-5_000, interaction.ButtonMiddle))
	assert.Equal(t, timerange.New(8_000, 10_000, 0), f.vp.View())

	f.m.PointerUp(at(0, interaction.ButtonMiddle))
	assert.Equal(t, interaction.ModeIdle, f.m.State().Mode())
	assert.Equal(t, interaction.CursorDefault, f.m.Cursor())
}

func TestCtrlLeftDrag_Pans(t *testing.T) {
	f := setup(t)
	f.vp.SetViewRange(2_000, 4_000)

	ev := at(60, interaction.ButtonLeft)
	ev.Ctrl = true
	f.m.PointerDown(ev)

	assert.Equal(t, interaction.ModePanning, f.m.State().Mode())

	up := at(60, interaction.ButtonLeft)
	up.Ctrl = true
	f.m.PointerUp(up)
	assert.Equal(t, interaction.CursorGrabbing, f.m.Cursor(), "ctrl still held")
}

func TestCtrlShiftLeftDrag_Selects(t *testing.T) {
	f := setup(t)

	ev := at(60, interaction.ButtonLeft)
	ev.Ctrl, ev.Shift = true, true
	f.m.PointerDown(ev)

	assert.Equal(t, interaction.ModeSelecting, f.m.State().Mode())
}

func TestPan_RequiresWidth(t *testing.T) {
	f := setup(t)
	f.m.SetGeometry(interaction.Geometry{})

	f.m.PointerDown(at(60, interaction.ButtonMiddle))

	assert.Equal(t, interaction.ModeIdle, f.m.State().Mode())
}

func TestLeftDrag_SelectsAndFinalizesOnLeave(t *testing.T) {
	f := setup(t)

	f.m.PointerDown(at(20, interaction.ButtonLeft))
	assert.Equal(t, interaction.CursorCrosshair, f.m.Cursor())
	f.m.PointerMove(at(50, interaction.ButtonLeft))

	sel, ok := f.vp.Selection()
	require.True(t, ok)
	assert.Equal(t, timerange.New(1_000, 4_000, 0), sel)

	f.m.PointerMove(at(200, interaction.ButtonLeft))
	f.m.PointerLeave()

	sel, _ = f.vp.Selection()
	assert.Equal(t, timerange.New(1_000, 10_000, 0), sel)
	assert.Equal(t, interaction.ModeIdle, f.m.State().Mode())
	assert.Equal(t, 1, f.registrar.removes)
	assert.Equal(t, timerange.New(0, 10_000, 0), f.vp.View())
}

func TestPointerDown_IgnoredWhileDragging(t *testing.T) {
	f := setup(t)

	f.m.PointerDown(at(20, interaction.ButtonRight))
	f.m.PointerDown(at(40, interaction.ButtonMiddle))

	assert.Equal(t, interaction.ModeSelecting, f.m.State().Mode())
	assert.Equal(t, 1, f.registrar.adds)
}

func TestWheel(t *testing.T) {
	f := setup(t)

	assert.False(t, f.m.Wheel(interaction.WheelEvent{X: 60, DeltaY: -1}))

	zoom := interaction.WheelEvent{X: 60, DeltaY: -1}
	zoom.Ctrl = true
	assert.True(t, f.m.Wheel(zoom))
	assert.Equal(t, timerange.New(1_000, 9_000, 0), f.vp.View())

	pan := interaction.WheelEvent{X: 60, DeltaY: 3}
	pan.Shift = true
	assert.True(t, f.m.Wheel(pan))
	assert.Equal(t, timerange.New(1_800, 9_800, 0), f.vp.View())

	f.m.SetTimeAxis(false)
	assert.False(t, f.m.Wheel(zoom))
}

func TestKeys_ZoomAroundPointerOrCenter(t *testing.T) {
	f := setup(t)

	assert.True(t, f.m.KeyDown(interaction.KeyEvent{Key: "w"}))
	assert.Equal(t, timerange.New(1_000, 9_000, 0), f.vp.View())

	f.m.PointerMove(at(10, interaction.ButtonNone))
	assert.True(t, f.m.KeyDown(interaction.KeyEvent{Key: "ArrowUp"}))
	assert.Equal(t, timerange.New(1_000, 7_400, 0), f.vp.View())

	assert.True(t, f.m.KeyDown(interaction.KeyEvent{Key: "s"}))
	assert.Equal(t, timerange.New(1_000, 9_000, 0), f.vp.View())
}

func TestKeys_Pan(t *testing.T) {
	f := setup(t)
	f.vp.SetViewRange(5_000, 6_000)

	f.m.KeyDown(interaction.KeyEvent{Key: "ArrowLeft"})
	assert.Equal(t, timerange.New(4_900, 5_900, 0), f.vp.View())

	f.m.KeyDown(interaction.KeyEvent{Key: "d"})
	f.m.KeyDown(interaction.KeyEvent{Key: "l"})
	assert.Equal(t, timerange.New(5_100, 6_100, 0), f.vp.View())

	assert.False(t, f.m.KeyDown(interaction.KeyEvent{Key: "x"}))
}

func TestKeys_DisabledOnCategoryAxis(t *testing.T) {
	f := setup(t)
	f.m.SetTimeAxis(false)

	assert.False(t, f.m.KeyDown(interaction.KeyEvent{Key: "w"}))
	assert.Equal(t, timerange.New(0, 10_000, 0), f.vp.View())
}

func TestControlKey_SetsGrabCursor(t *testing.T) {
	f := setup(t)

	f.m.KeyDown(interaction.KeyEvent{Key: interaction.KeyControl})
	assert.Equal(t, interaction.CursorGrabbing, f.m.Cursor())
	f.m.KeyUp(interaction.KeyEvent{Key: interaction.KeyControl})
	assert.Equal(t, interaction.CursorDefault, f.m.Cursor())

	f.m.PointerDown(at(20, interaction.ButtonRight))
	f.m.KeyDown(interaction.KeyEvent{Key: interaction.KeyControl})
	assert.Equal(t, interaction.CursorColResize, f.m.Cursor())
	f.m.KeyUp(interaction.KeyEvent{Key: interaction.KeyControl})
	assert.Equal(t, interaction.CursorColResize, f.m.Cursor())

	assert.Equal(t,
		[]interaction.Cursor{
			interaction.CursorGrabbing,
			interaction.CursorDefault,
			interaction.CursorColResize,
		},
		f.cursors)
}

func TestReset_DetachesListener(t *testing.T) {
	f := setup(t)
	f.m.PointerDown(at(20, interaction.ButtonRight))

	f.m.Reset()
	f.m.Reset()

	assert.Equal(t, interaction.ModeIdle, f.m.State().Mode())
	assert.Equal(t, 1, f.registrar.removes)
	assert.Empty(t, f.registrar.listeners)
}

func TestKeyBindings_DocumentEveryHandledKey(t *testing.T) {
	keys := map[string]bool{}
	for _, c := range interaction.KeyBindings() {
		for _, b := range c.Bindings {
			for _, k := range b.Keys {
				keys[k] = true
			}
		}
	}

	for _, k := range []string{"w", "s", "a", "d", "ArrowUp", "ArrowDown", "ArrowLeft", "ArrowRight"} {
		assert.True(t, keys[k], k)
	}
}
