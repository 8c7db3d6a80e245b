package root_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traceviewer/tracechart/cmd/tracechart/root"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := root.NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--template", "{{.version}}")

	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func traceServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/experiments/exp-1":
			_, _ = io.WriteString(w, `{"UUID":"exp-1","name":"kernel","start":1000,"end":2000}`)
		case strings.HasSuffix(r.URL.Path, "/tree"):
			_, _ = io.WriteString(w, `{
				"model": {"entries": [
					{"id": 1, "parentId": -1, "labels": ["kernel"], "hasData": false},
					{"id": 2, "parentId": 1, "labels": ["cpu0"]}
				]},
				"status": "COMPLETED"
			}`)
		case strings.HasSuffix(r.URL.Path, "/xy"):
			_, _ = io.WriteString(w, `{
				"model": {"title": "CPU", "series": [
					{"seriesId": 2, "seriesName": "cpu0", "xValues": [1000, 1500, 2000], "yValues": [1, 2, 3]}
				]},
				"status": "COMPLETED"
			}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetch_PrintsAssembledChart(t *testing.T) {
	server := traceServer(t)

	out, err := run(t, "fetch",
		"--server", server.URL,
		"--experiment", "exp-1",
		"--output", "cpu.usage",
		"--width", "80")

	require.NoError(t, err)
	var got struct {
		Status string `json:"status"`
		Query  struct {
			Start     int64   `json:"start"`
			End       int64   `json:"end"`
			SeriesIDs []int64 `json:"seriesIds"`
		} `json:"query"`
		Data struct {
			Datasets []struct {
				Label string    `json:"label"`
				Data  []float64 `json:"data"`
			} `json:"datasets"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "COMPLETED", got.Status)
	assert.Equal(t, int64(1000), got.Query.Start)
	assert.Equal(t, int64(2000), got.Query.End)
	assert.Equal(t, []int64{2}, got.Query.SeriesIDs)
	require.Len(t, got.Data.Datasets, 1)
	assert.Equal(t, "cpu0", got.Data.Datasets[0].Label)
	assert.Equal(t, []float64{1, 2, 3}, got.Data.Datasets[0].Data)
}

func TestFetch_RequiresExperiment(t *testing.T) {
	_, err := run(t, "fetch", "--output", "cpu.usage", "--experiment", "")

	assert.ErrorContains(t, err, "--experiment")
}
