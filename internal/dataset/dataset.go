// Package dataset turns server series into renderable datasets.
package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/traceviewer/tracechart/internal/datasource"
)

// ChartKind selects how datasets are drawn.
type ChartKind int

const (
	KindBar ChartKind = iota
	KindLine
	KindScatter
)

func (k ChartKind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindScatter:
		return "scatter"
	default:
		return "bar"
	}
}

// MarshalText encodes the kind by name.
func (k ChartKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ChartKindFromStyle parses a series style hint; anything unknown is a bar.
func ChartKindFromStyle(hint string) ChartKind {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "line":
		return KindLine
	case "scatter":
		return KindScatter
	default:
		return KindBar
	}
}

// RenderDataset is one series ready to draw.
type RenderDataset struct {
	Label string    `json:"label" yaml:"label"`
	Kind  ChartKind `json:"kind" yaml:"kind"`
	Data  []float64 `json:"data" yaml:"data"`
	Color string    `json:"color" yaml:"color"`
}

// Assembled is everything needed to draw one fetch result.
type Assembled struct {
	Kind     ChartKind       `json:"kind" yaml:"kind"`
	Labels   []string        `json:"labels" yaml:"labels"`
	Datasets []RenderDataset `json:"datasets" yaml:"datasets"`
	YMin     float64         `json:"yMin" yaml:"yMin"`
	YMax     float64         `json:"yMax" yaml:"yMax"`

	// TimeAxis is false when the x values are ranges or categories.
	TimeAxis bool `json:"timeAxis" yaml:"timeAxis"`
}

// Empty is the assembled form of a result with no series.
func Empty() Assembled {
	return Assembled{
		Labels:   []string{},
		Datasets: []RenderDataset{},
		YMin:     DefaultYMin,
		YMax:     DefaultYMax,
		TimeAxis: true,
	}
}

// ColorSource assigns colors to series names.
type ColorSource interface {
	ColorFor(name string) string
}

// Build converts series into datasets.
//
// The chart kind comes from the first series' style hint. Labels come from
// the first series' x values; timestamps are shown relative to offset.
func Build(series []datasource.Series, offset int64, colors ColorSource) Assembled {
	if len(series) == 0 {
		return Empty()
	}

	kind := ChartKindFromStyle(series[0].StyleHint)
	datasets := make([]RenderDataset, 0, len(series))
	for _, s := range series {
		data := make([]float64, len(s.Y))
		copy(data, s.Y)
		datasets = append(datasets, RenderDataset{
			Label: s.Name,
			Kind:  kind,
			Data:  data,
			Color: colors.ColorFor(s.Name),
		})
	}

	yMin, yMax := YRange(datasets)
	return Assembled{
		Kind:     kind,
		Labels:   XLabels(series[0].X, offset),
		Datasets: datasets,
		YMin:     yMin,
		YMax:     yMax,
		TimeAxis: series[0].X.Kind == datasource.XTimestamps,
	}
}

// XLabels derives axis labels from x values.
func XLabels(x datasource.XValues, offset int64) []string {
	labels := make([]string, 0, x.Len())
	switch x.Kind {
	case datasource.XRanges:
		for _, r := range x.Ranges {
			labels = append(labels,
				"["+strconv.FormatInt(r.Start, 10)+","+strconv.FormatInt(r.End, 10)+"]")
		}
	case datasource.XCategories:
		labels = append(labels, x.Categories...)
	default:
		for _, t := range x.Timestamps {
			labels = append(labels, FormatNanos(t-offset))
		}
	}
	return labels
}

const (
	DefaultYMin = 0.0
	DefaultYMax = 1.0

	yMinPadding = 0.99
	yMaxPadding = 1.01
)

// YRange returns the padded y bounds over all datasets.
//
// Non-finite values are ignored. Empty, flat or non-finite ranges fall back
// to [0, 1].
func YRange(datasets []RenderDataset) (yMin, yMax float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, ds := range datasets {
		for _, v := range ds.Data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}

	yMin, yMax = lo*yMinPadding, hi*yMaxPadding
	if yMin == yMax || !isFinite(yMin) || !isFinite(yMax) {
		return DefaultYMin, DefaultYMax
	}
	return yMin, yMax
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
