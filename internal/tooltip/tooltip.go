// Package tooltip finds the values under the pointer.
package tooltip

import (
	"math"
	"sort"
	"strconv"

	"github.com/traceviewer/tracechart/internal/dataset"
)

const (
	// zeroSummaryThreshold is the dataset count above which zero values are
	// summarized instead of listed.
	zeroSummaryThreshold = 10

	roundingScale = 100
)

// Params describe the pointer and what is drawn.
type Params struct {
	PointerX  float64
	PlotLeft  float64
	PlotWidth float64

	Labels   []string
	Datasets []dataset.RenderDataset
}

// Entry is one listed value.
type Entry struct {
	Name  string
	Color string
	// Value is rounded to two decimals.
	Value float64
}

// Tooltip is the resolved content.
type Tooltip struct {
	// OK is false when there is nothing to show.
	OK bool

	Index   int
	Label   string
	Entries []Entry

	// ZeroCount is the number of zero values left out of Entries.
	ZeroCount int
}

// Summary is the line describing omitted zero values, if any.
func (t Tooltip) Summary() string {
	if t.ZeroCount == 0 {
		return ""
	}
	return strconv.Itoa(t.ZeroCount) + " others: 0"
}

// Bin returns the label index under the pointer.
//
// It returns -1 if there are no labels or the plot has no width.
func Bin(pointerX, plotLeft, plotWidth float64, labelCount int) int {
	if labelCount <= 0 || !(plotWidth > 0) {
		return -1
	}
	x := min(max(pointerX-plotLeft, 0), plotWidth)
	if math.IsNaN(x) {
		x = 0
	}
	binWidth := plotWidth / float64(labelCount)
	idx := int(math.Floor(x / binWidth))
	return min(max(idx, 0), labelCount-1)
}

// Resolve returns the tooltip for the pointer position.
func Resolve(p Params) Tooltip {
	idx := Bin(p.PointerX, p.PlotLeft, p.PlotWidth, len(p.Labels))
	if idx < 0 {
		return Tooltip{}
	}

	summarizeZeros := len(p.Datasets) > zeroSummaryThreshold
	t := Tooltip{OK: true, Index: idx, Label: p.Labels[idx]}
	for _, ds := range p.Datasets {
		if idx >= len(ds.Data) {
			continue
		}
		v := ds.Data[idx]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}

		rounded := round2(v)
		if summarizeZeros && rounded == 0 {
			t.ZeroCount++
			continue
		}
		t.Entries = append(t.Entries, Entry{Name: ds.Label, Color: ds.Color, Value: rounded})
	}

	sort.SliceStable(t.Entries, func(i, j int) bool {
		return t.Entries[i].Value > t.Entries[j].Value
	})
	return t
}

func round2(v float64) float64 {
	r := math.Round(v*roundingScale) / roundingScale
	if r == 0 {
		// Normalize -0.
		return 0
	}
	return r
}
