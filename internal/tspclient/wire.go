package tspclient

import (
	"fmt"

	"github.com/traceviewer/tracechart/internal/datasource"
)

// noParent is the parent ID of root tree entries.
const noParent int64 = -1

type requestedTimeRange struct {
	Start   int64 `json:"start"`
	End     int64 `json:"end"`
	NbTimes int   `json:"nbTimes,omitempty"`
}

type queryParameters struct {
	RequestedTimeRange requestedTimeRange `json:"requested_timerange"`
	RequestedItems     []int64            `json:"requested_items,omitempty"`
}

type queryBody struct {
	Parameters queryParameters `json:"parameters"`
}

func treeQueryBody(q datasource.RangeQuery) queryBody {
	return queryBody{Parameters: queryParameters{
		RequestedTimeRange: requestedTimeRange{Start: q.Start, End: q.End},
	}}
}

func seriesQueryBody(q datasource.SelectionQuery) queryBody {
	items := q.SeriesIDs
	if items == nil {
		items = []int64{}
	}
	return queryBody{Parameters: queryParameters{
		RequestedTimeRange: requestedTimeRange{
			Start:   q.Start,
			End:     q.End,
			NbTimes: q.SampleCount,
		},
		RequestedItems: items,
	}}
}

// genericResponse is the envelope of every output response.
type genericResponse[T any] struct {
	Model         *T     `json:"model"`
	Status        string `json:"status"`
	StatusMessage string `json:"statusMessage"`
}

type wireExperiment struct {
	UUID  string `json:"UUID"`
	Name  string `json:"name"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

type wireHeader struct {
	Name string `json:"name"`
}

type wireTreeEntry struct {
	ID       int64    `json:"id"`
	ParentID *int64   `json:"parentId"`
	Labels   []string `json:"labels"`
	HasData  *bool    `json:"hasData"`
}

type wireTreeModel struct {
	Headers []wireHeader    `json:"headers"`
	Entries []wireTreeEntry `json:"entries"`
}

type wireStyle struct {
	Values map[string]any `json:"values"`
}

type wireSeries struct {
	SeriesID    int64              `json:"seriesId"`
	SeriesName  string             `json:"seriesName"`
	XValues     []int64            `json:"xValues"`
	XRanges     []datasource.Range `json:"xRanges"`
	XCategories []string           `json:"xCategories"`
	YValues     []float64          `json:"yValues"`
	Style       *wireStyle         `json:"style"`
}

type wireXYModel struct {
	Title  string       `json:"title"`
	Series []wireSeries `json:"series"`
}

func (m *wireTreeModel) toModel() *datasource.TreeModel {
	out := &datasource.TreeModel{
		Entries: make([]datasource.TreeEntry, 0, len(m.Entries)),
	}
	for _, h := range m.Headers {
		out.Headers = append(out.Headers, h.Name)
	}
	for _, e := range m.Entries {
		entry := datasource.TreeEntry{
			ID:       e.ID,
			ParentID: noParent,
			Labels:   e.Labels,
			HasData:  true,
		}
		if e.ParentID != nil {
			entry.ParentID = *e.ParentID
		}
		if e.HasData != nil {
			entry.HasData = *e.HasData
		}
		out.Entries = append(out.Entries, entry)
	}
	return out
}

func (m *wireXYModel) toModel() (*datasource.SeriesModel, error) {
	out := &datasource.SeriesModel{
		Title:  m.Title,
		Series: make([]datasource.Series, 0, len(m.Series)),
	}
	for _, s := range m.Series {
		series := datasource.Series{
			ID:   s.SeriesID,
			Name: s.SeriesName,
			Y:    s.YValues,
		}

		switch {
		case s.XRanges != nil:
			series.X = datasource.XValues{Kind: datasource.XRanges, Ranges: s.XRanges}
		case s.XCategories != nil:
			series.X = datasource.XValues{Kind: datasource.XCategories, Categories: s.XCategories}
		default:
			series.X = datasource.XValues{Kind: datasource.XTimestamps, Timestamps: s.XValues}
		}

		if n := series.X.Len(); n != len(series.Y) {
			return nil, fmt.Errorf(
				"tspclient: series %d has %d x values and %d y values",
				s.SeriesID, n, len(series.Y))
		}

		if s.Style != nil {
			if hint, ok := s.Style.Values["series-type"].(string); ok {
				series.StyleHint = hint
			}
		}
		out.Series = append(out.Series, series)
	}
	return out, nil
}
