package viewport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traceviewer/tracechart/internal/timerange"
	"github.com/traceviewer/tracechart/internal/viewport"
)

func TestNew_ShowsWholeTrace(t *testing.T) {
	vp := viewport.New(1_000, 42, viewport.DefaultOptions())

	assert.Equal(t, timerange.New(0, 1_000, 0), vp.View())
	assert.Equal(t, timerange.New(42, 1_042, 42), vp.AbsoluteView())
	assert.Equal(t, int64(42), vp.Origin())
	assert.Equal(t, int64(1_000), vp.AbsoluteRange())
	_, ok := vp.Selection()
	assert.False(t, ok)
}

func TestSetViewRange_NormalizesAndClamps(t *testing.T) {
	vp := viewport.New(1_000, 0, viewport.DefaultOptions())

	vp.SetViewRange(100, 200)
	assert.True(t, vp.SetViewRange(1_200, -50))

	assert.Equal(t, timerange.New(0, 1_000, 0), vp.View())
}

func TestSetViewRange_ReportsNoChange(t *testing.T) {
	vp := viewport.New(1_000, 0, viewport.DefaultOptions())

	assert.False(t, vp.SetViewRange(0, 1_000))
}

func TestSubscribe_ReceivesChanges(t *testing.T) {
	vp := viewport.New(1_000, 0, viewport.DefaultOptions())
	var changes []viewport.Change
	unsubscribe := vp.Subscribe(func(c viewport.Change) {
		changes = append(changes, c)
	})

	vp.ZoomCenter(true)
	vp.SetSelection(300, 100)
	vp.ClearSelection()
	unsubscribe()
	unsubscribe()
	vp.PanBy(viewport.Left)

	require.Len(t, changes, 3)
	assert.Equal(t, viewport.ViewChanged, changes[0].Kind)
	assert.Equal(t, timerange.New(100, 900, 0), changes[0].View)
	assert.Equal(t, viewport.SelectionChanged, changes[1].Kind)
	require.NotNil(t, changes[1].Selection)
	assert.Equal(t, int64(100), changes[1].Selection.Start)
	assert.Equal(t, int64(300), changes[1].Selection.End)
	assert.Nil(t, changes[2].Selection)
}

func TestPanTo_KeepsDurationInsideBounds(t *testing.T) {
	vp := viewport.New(1_000, 0, viewport.DefaultOptions())
	vp.SetViewRange(100, 300)

	vp.PanTo(950)

	assert.Equal(t, timerange.New(800, 1_000, 0), vp.View())
}

func TestZoomAt_OneUnitTraceNeverGrows(t *testing.T) {
	vp := viewport.New(1, 0, viewport.DefaultOptions())

	assert.False(t, vp.ZoomAt(0, true))
	assert.False(t, vp.ZoomAt(1, false))

	assert.Equal(t, timerange.New(0, 1, 0), vp.View())
}

func TestNew_InvalidOptionsFallBackToDefaults(t *testing.T) {
	vp := viewport.New(1_000, 0, viewport.Options{ZoomRateIn: 3, ZoomRateOut: 0.5})

	vp.ZoomCenter(true)

	assert.Equal(t, int64(800), vp.View().Duration())
}

func TestAbsoluteView_TimeAtYieldsRelativeTime(t *testing.T) {
	vp := viewport.New(1_000, 1_700_000_000_000_000_000, viewport.DefaultOptions())
	vp.SetViewRange(200, 400)

	abs := vp.AbsoluteView()

	assert.Equal(t, int64(300), timerange.TimeAt(abs, 100, 50))
	assert.Equal(t, int64(300), timerange.TimeAt(vp.View(), 100, 50))
}
