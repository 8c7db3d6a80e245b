package viewport_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traceviewer/tracechart/internal/timerange"
	"github.com/traceviewer/tracechart/internal/viewport"
)

func zoom(view timerange.TimeRange, abs, center int64, in bool) timerange.TimeRange {
	return viewport.Zoom(view, abs, center, in,
		viewport.DefaultZoomRateIn, viewport.DefaultZoomRateOut)
}

func TestZoom_InAroundCenter(t *testing.T) {
	view := timerange.New(0, 1_000, 0)

	got := zoom(view, 10_000, 500, true)

	assert.Equal(t, int64(100), got.Start)
	assert.Equal(t, int64(900), got.End)
}

func TestZoom_KeepsPointUnderCursorFixed(t *testing.T) {
	view := timerange.New(1_000, 2_000, 0)

	got := zoom(view, 10_000, 1_250, true)

	// 250 before the center shrinks to 200.
	assert.Equal(t, int64(1_050), got.Start)
	assert.Equal(t, int64(800), got.Duration())
}

func TestZoom_InThenOutRestoresDuration(t *testing.T) {
	const abs = int64(1_000_000_000)
	views := []timerange.TimeRange{
		timerange.New(0, 1_000, 0),
		timerange.New(12_345, 98_765, 0),
		timerange.New(500_000_000, 700_000_003, 0),
	}

	for _, view := range views {
		for _, frac := range []float64{0, 0.1, 0.5, 0.77, 1} {
			center := view.Start + int64(frac*float64(view.Duration()))
			in := zoom(view, abs, center, true)
			out := zoom(in, abs, center, false)
			require.InDelta(t, view.Duration(), out.Duration(), 1,
				"view=%v center=%d", view, center)
		}
	}
}

func TestZoom_NoOpOnDegenerateView(t *testing.T) {
	view := timerange.New(5, 5, 0)

	assert.Equal(t, view, zoom(view, 100, 5, true))
}

func TestZoom_InStopsAtMinimumDuration(t *testing.T) {
	view := timerange.New(10, 12, 0)

	got := zoom(view, 100, 11, true)

	assert.Equal(t, int64(2), got.Duration())
}

func TestZoom_TraceShorterThanMinimumStaysInside(t *testing.T) {
	view := timerange.New(0, 1, 0)

	assert.Equal(t, view, zoom(view, 1, 0, true))
	assert.Equal(t, view, zoom(view, 1, 1, false))
}

func TestZoom_OutClampsToAbsoluteRange(t *testing.T) {
	view := timerange.New(100, 900, 0)

	got := zoom(view, 1_000, 800, false)

	assert.Equal(t, int64(0), got.Start)
	assert.Equal(t, int64(1_000), got.End)
}

func TestZoom_OutNearEndShiftsBack(t *testing.T) {
	view := timerange.New(600, 1_000, 0)

	got := zoom(view, 1_000, 1_000, false)

	assert.Equal(t, int64(500), got.Duration())
	assert.Equal(t, int64(1_000), got.End)
	assert.Equal(t, int64(500), got.Start)
}

func TestZoom_PreservesOffset(t *testing.T) {
	view := timerange.New(0, 1_000, 77)

	assert.Equal(t, int64(77), zoom(view, 5_000, 500, true).Offset)
}

func TestPan_ShiftsByFactor(t *testing.T) {
	view := timerange.New(1_000, 2_000, 0)

	right := viewport.Pan(view, 10_000, viewport.Right, viewport.DefaultPanFactor)
	left := viewport.Pan(view, 10_000, viewport.Left, viewport.DefaultPanFactor)

	assert.Equal(t, timerange.New(1_100, 2_100, 0), right)
	assert.Equal(t, timerange.New(900, 1_900, 0), left)
}

func TestPan_ClampsAtStart(t *testing.T) {
	view := timerange.New(50, 1_050, 0)

	got := viewport.Pan(view, 10_000, viewport.Left, viewport.DefaultPanFactor)

	assert.Equal(t, timerange.New(0, 1_000, 0), got)
	assert.Equal(t, got, viewport.Pan(got, 10_000, viewport.Left, viewport.DefaultPanFactor))
}

func TestPan_ClampsAtAbsoluteRange(t *testing.T) {
	view := timerange.New(8_950, 9_950, 0)

	got := viewport.Pan(view, 10_000, viewport.Right, viewport.DefaultPanFactor)

	assert.Equal(t, timerange.New(9_000, 10_000, 0), got)
	assert.Equal(t, got, viewport.Pan(got, 10_000, viewport.Right, viewport.DefaultPanFactor))
}

func TestPan_RepeatedNeverLeavesBounds(t *testing.T) {
	const abs = int64(123_457)
	view := timerange.New(40_000, 47_777, 0)

	for i := range 200 {
		dir := viewport.Right
		if (i/37)%2 == 1 {
			dir = viewport.Left
		}
		view = viewport.Pan(view, abs, dir, 0.1+math.Mod(float64(i), 3)/10)
		require.GreaterOrEqual(t, view.Start, int64(0))
		require.LessOrEqual(t, view.End, abs)
		require.Equal(t, int64(7_777), view.Duration())
	}
}
