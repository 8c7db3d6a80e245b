package cliutil_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traceviewer/tracechart/internal/cliutil"
	"github.com/traceviewer/tracechart/internal/observabilitytest"
	"github.com/traceviewer/tracechart/internal/tspclient"
)

func newTargetCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("server", "", "")
	cmd.Flags().String("experiment", "", "")
	cmd.Flags().String("output", "", "")
	return cmd
}

func TestTargetFromFlags(t *testing.T) {
	cmd := newTargetCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--server", "http://localhost:8080/tsp/api",
		"--experiment", "exp-1",
		"--output", "cpu.usage",
	}))

	target, err := cliutil.TargetFromFlags(cmd)

	require.NoError(t, err)
	assert.Equal(t, cliutil.Target{
		Server:     "http://localhost:8080/tsp/api",
		Experiment: "exp-1",
		Output:     "cpu.usage",
	}, target)
}

func TestTargetFromFlags_ReportsMissingFlags(t *testing.T) {
	cmd := newTargetCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--server", "http://localhost"}))

	_, err := cliutil.TargetFromFlags(cmd)

	assert.ErrorContains(t, err, "--experiment")
	assert.ErrorContains(t, err, "--output")
}

func TestOpenExperiment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/experiments/exp-1" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"UUID":"exp-1","name":"kernel","start":100,"end":900}`)
	}))
	defer server.Close()

	_, exp, err := cliutil.OpenExperiment(context.Background(),
		cliutil.Target{Server: server.URL, Experiment: "exp-1", Output: "cpu"},
		observabilitytest.NewTestLogger(t))

	require.NoError(t, err)
	assert.Equal(t, "kernel", exp.Name)
	assert.Equal(t, int64(100), exp.Start)
	assert.Equal(t, int64(900), exp.End)
}

func TestOpenExperiment_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, _, err := cliutil.OpenExperiment(context.Background(),
		cliutil.Target{Server: server.URL, Experiment: "missing", Output: "cpu"},
		observabilitytest.NewTestLogger(t))

	assert.ErrorIs(t, err, tspclient.ErrStatus)
}
