package cliutil

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/traceviewer/tracechart/internal/datasource"
	"github.com/traceviewer/tracechart/internal/observability"
	"github.com/traceviewer/tracechart/internal/tspclient"
)

// Target names the chart a command works on.
type Target struct {
	Server     string
	Experiment string
	Output     string
}

// TargetFromFlags reads the server, experiment and output flags.
func TargetFromFlags(cmd *cobra.Command) (Target, error) {
	target := Target{
		Server:     GetString(cmd, "server"),
		Experiment: GetString(cmd, "experiment"),
		Output:     GetString(cmd, "output"),
	}

	var missing []string
	if target.Server == "" {
		missing = append(missing, "--server")
	}
	if target.Experiment == "" {
		missing = append(missing, "--experiment")
	}
	if target.Output == "" {
		missing = append(missing, "--output")
	}
	if len(missing) > 0 {
		return Target{}, fmt.Errorf("missing required flags: %v", missing)
	}
	return target, nil
}

// OpenExperiment connects to the trace server and looks up the target's
// experiment.
func OpenExperiment(
	ctx context.Context,
	target Target,
	logger *observability.CoreLogger,
) (*tspclient.Client, datasource.Experiment, error) {
	client := tspclient.New(target.Server, tspclient.WithLogger(logger))

	exp, err := client.FetchExperiment(ctx, target.Experiment)
	if err != nil {
		return nil, datasource.Experiment{},
			fmt.Errorf("failed to open experiment %s: %w", target.Experiment, err)
	}
	if exp.UUID == "" {
		exp.UUID = target.Experiment
	}
	if exp.End < exp.Start {
		return nil, datasource.Experiment{},
			errors.New("experiment has an invalid time range")
	}
	return client, exp, nil
}
