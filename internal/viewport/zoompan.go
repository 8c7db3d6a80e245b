package viewport

import (
	"math"

	"github.com/traceviewer/tracechart/internal/timerange"
)

const (
	DefaultZoomRateIn  = 0.8
	DefaultZoomRateOut = 1.25
	DefaultPanFactor   = 0.1

	// minZoomDuration is the narrowest window zooming can produce.
	minZoomDuration = 2
)

// Direction is the direction of a pan.
type Direction int

const (
	Left  Direction = -1
	Right Direction = 1
)

// Zoom scales view around centerTime and returns the new window.
//
// The new duration is clamped to [2, absoluteRange]; the window is shifted
// back inside [0, absoluteRange] when it would leave it. A trace shorter
// than 2 is shown whole. Views shorter than one time unit are returned
// unchanged.
func Zoom(
	view timerange.TimeRange,
	absoluteRange int64,
	centerTime int64,
	zoomIn bool,
	rateIn, rateOut float64,
) timerange.TimeRange {
	duration := view.Duration()
	if duration < 1 {
		return view
	}

	rate := rateOut
	if zoomIn {
		rate = rateIn
	}

	lower, upper := int64(minZoomDuration), max(absoluteRange, minZoomDuration)
	if absoluteRange > 0 && absoluteRange < minZoomDuration {
		lower, upper = absoluteRange, absoluteRange
	}
	newDuration := int64(math.Round(float64(duration) * rate))
	newDuration = min(max(newDuration, lower), upper)

	distance := centerTime - view.Start
	newStart := max(0, centerTime-int64(math.Round(float64(distance)*rate)))
	newEnd := newStart + newDuration
	if absoluteRange > 0 && newEnd > absoluteRange {
		newStart = max(0, absoluteRange-newDuration)
		newEnd = newStart + newDuration
	}

	return timerange.TimeRange{Start: newStart, End: newEnd, Offset: view.Offset}
}

// Pan shifts view by factor of its duration in the given direction.
//
// The duration is preserved; the window stops at 0 and at absoluteRange.
func Pan(
	view timerange.TimeRange,
	absoluteRange int64,
	direction Direction,
	factor float64,
) timerange.TimeRange {
	duration := view.Duration()
	shift := int64(math.Round(float64(duration) * factor))

	newStart := view.Start + int64(direction)*shift
	return clampWindow(view.WithStart(newStart), absoluteRange)
}

// clampWindow moves r inside [0, absoluteRange] keeping its duration.
//
// A non-positive absoluteRange only clamps the lower bound.
func clampWindow(r timerange.TimeRange, absoluteRange int64) timerange.TimeRange {
	duration := r.Duration()
	if absoluteRange > 0 && r.End > absoluteRange {
		r = r.WithStart(absoluteRange - duration)
	}
	if r.Start < 0 {
		r = r.WithStart(0)
	}
	return r
}
