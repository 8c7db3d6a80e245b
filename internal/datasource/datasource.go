// Package datasource defines the contract of the remote analysis server
// the chart pulls its data from.
package datasource

//go:generate go run go.uber.org/mock/mockgen -destination=../datasourcetest/mock_datasource.go -package=datasourcetest . DataSource

import (
	"context"
	"errors"
)

// ErrNoModel is returned when a response carries no model.
var ErrNoModel = errors.New("datasource: response has no model")

// Status is the analysis state reported by the server.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether the analysis will not progress further.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// ParseStatus maps a wire status to a Status; unknown values are Running.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return Status(s)
	default:
		return StatusRunning
	}
}

// RangeQuery asks for data within [Start, End] in absolute time.
type RangeQuery struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// SelectionQuery asks for SampleCount samples of the given series.
type SelectionQuery struct {
	Start       int64   `json:"start"`
	End         int64   `json:"end"`
	SampleCount int     `json:"sampleCount"`
	SeriesIDs   []int64 `json:"seriesIds"`
}

// Experiment is an opened trace or set of traces.
type Experiment struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

// TreeEntry is one selectable row of the series tree.
type TreeEntry struct {
	ID       int64    `json:"id"`
	ParentID int64    `json:"parentId"`
	Labels   []string `json:"labels"`
	HasData  bool     `json:"hasData"`
}

// TreeModel is the tree of series an output provides.
type TreeModel struct {
	Headers []string    `json:"headers,omitempty"`
	Entries []TreeEntry `json:"entries"`
}

type TreeResult struct {
	Model         *TreeModel
	Status        Status
	StatusMessage string
}

// XKind tells how a series is sampled along the x axis.
type XKind int

const (
	XTimestamps XKind = iota
	XRanges
	XCategories
)

// Range is a closed interval of absolute time.
type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// XValues holds exactly one of its slices, selected by Kind.
type XValues struct {
	Kind       XKind
	Timestamps []int64
	Ranges     []Range
	Categories []string
}

// Len is the number of samples.
func (x XValues) Len() int {
	switch x.Kind {
	case XRanges:
		return len(x.Ranges)
	case XCategories:
		return len(x.Categories)
	default:
		return len(x.Timestamps)
	}
}

// Series is one sampled line of an XY output.
type Series struct {
	ID        int64
	Name      string
	X         XValues
	Y         []float64
	StyleHint string
}

type SeriesModel struct {
	Title  string
	Series []Series
}

type SeriesResult struct {
	Model         *SeriesModel
	Status        Status
	StatusMessage string
}

// DataSource is an asynchronous client of the analysis server.
type DataSource interface {
	// FetchTree returns the series tree of an output.
	FetchTree(
		ctx context.Context,
		traceID, outputID string,
		query RangeQuery,
	) (TreeResult, error)

	// FetchSeries returns sampled series of an output.
	FetchSeries(
		ctx context.Context,
		traceID, outputID string,
		query SelectionQuery,
	) (SeriesResult, error)
}

// ExperimentSource looks up experiment bounds.
type ExperimentSource interface {
	FetchExperiment(ctx context.Context, traceID string) (Experiment, error)
}
