package datasourcetest

import "github.com/traceviewer/tracechart/internal/datasource"

// TimestampSeries builds a series sampled at the given times.
func TimestampSeries(id int64, name string, xs []int64, ys []float64) datasource.Series {
	return datasource.Series{
		ID:   id,
		Name: name,
		X:    datasource.XValues{Kind: datasource.XTimestamps, Timestamps: xs},
		Y:    ys,
	}
}

// CompletedSeries wraps series in a completed result.
func CompletedSeries(series ...datasource.Series) datasource.SeriesResult {
	return datasource.SeriesResult{
		Model:  &datasource.SeriesModel{Series: series},
		Status: datasource.StatusCompleted,
	}
}
