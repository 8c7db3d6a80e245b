// Package timerange maps between chart pixel positions and absolute
// nanosecond timestamps.
package timerange

import "math"

// TimeRange is an immutable window of time.
//
// Start is always less than or equal to End. Offset is the absolute time
// of the trace origin and is subtracted when converting pixels to times.
type TimeRange struct {
	Start  int64 `json:"start" yaml:"start"`
	End    int64 `json:"end" yaml:"end"`
	Offset int64 `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// New returns a TimeRange with start and end swapped if necessary.
func New(start, end, offset int64) TimeRange {
	if start > end {
		start, end = end, start
	}
	return TimeRange{Start: start, End: end, Offset: offset}
}

// Duration is End - Start.
func (r TimeRange) Duration() int64 {
	return r.End - r.Start
}

// IsDegenerate reports whether the range has no positive extent.
func (r TimeRange) IsDegenerate() bool {
	return r.End <= r.Start
}

// Contains reports whether t lies within [Start, End].
func (r TimeRange) Contains(t int64) bool {
	return t >= r.Start && t <= r.End
}

// WithStart returns a copy of r moved to start with the same duration.
func (r TimeRange) WithStart(start int64) TimeRange {
	return TimeRange{Start: start, End: start + r.Duration(), Offset: r.Offset}
}

// safeDuration is the duration used as a denominator; never below 1.
func (r TimeRange) safeDuration() int64 {
	return max(1, r.Duration())
}

// TimeAt returns the time under the pixel column xPx of a plot widthPx wide.
//
// xPx is clamped to [0, widthPx] and widthPx to at least 1. Only the pixel
// ratio uses floating point; rounding is half away from zero.
func TimeAt(vr TimeRange, widthPx, xPx float64) int64 {
	widthPx = max(1, widthPx)
	xPx = min(max(0, xPx), widthPx)
	if math.IsNaN(xPx) {
		xPx = 0
	}

	ratio := xPx / widthPx
	delta := int64(math.Round(ratio * float64(vr.Duration())))
	return vr.Start - vr.Offset + delta
}

// XAt returns the pixel position of time t in a plot widthPx wide.
//
// It is the inverse of TimeAt and is not clamped: times outside the range
// map outside [0, widthPx].
func XAt(vr TimeRange, widthPx float64, t int64) float64 {
	widthPx = max(1, widthPx)
	rel := t + vr.Offset - vr.Start
	return float64(rel) / float64(vr.safeDuration()) * widthPx
}

// Resolution is the number of pixels per unit of time.
func Resolution(vr TimeRange, widthPx float64) float64 {
	return max(1, widthPx) / float64(vr.safeDuration())
}
