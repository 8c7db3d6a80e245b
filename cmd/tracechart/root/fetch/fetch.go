package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/traceviewer/tracechart/internal/chartview"
	"github.com/traceviewer/tracechart/internal/cliutil"
	"github.com/traceviewer/tracechart/internal/dataset"
	"github.com/traceviewer/tracechart/internal/datasource"
	"github.com/traceviewer/tracechart/internal/interaction"
)

// result is what the command prints.
type result struct {
	Experiment    string                    `json:"experiment"`
	Output        string                    `json:"output"`
	Status        datasource.Status         `json:"status"`
	StatusMessage string                    `json:"statusMessage,omitempty"`
	Query         datasource.SelectionQuery `json:"query"`
	Data          dataset.Assembled         `json:"data"`
}

func NewFetchCmd() *cobra.Command {
	var series []string
	var width int
	var start, end int64
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a chart once and print its datasets",
		Long: heredoc.Doc(`
			Fetch one chart the way the interactive viewer would for a plot of
			the given width, and print the assembled datasets.
		`),
		Example: heredoc.Doc(`
			# Fetch series 3 and 4 for an 80 column plot
			$ tracechart fetch --experiment <uuid> --output <output-id> --series 3,4 --width 80

			# Fetch a time range (absolute nanoseconds) and print only the status
			$ tracechart fetch --experiment <uuid> --output <output-id> --start 1000 --end 5000 --template '{{.status}}'
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := cliutil.TargetFromFlags(cmd)
			if err != nil {
				return err
			}
			ids, err := cliutil.ParseSeriesIDs(series)
			if err != nil {
				return err
			}
			if width <= 0 {
				return fmt.Errorf("--width must be positive, got %d", width)
			}

			logger := cliutil.NewConsoleLogger(cmd.ErrOrStderr(), viper.GetBool("debug"), nil)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client, exp, err := cliutil.OpenExperiment(ctx, target, logger)
			if err != nil {
				return err
			}

			view, err := chartview.New(chartview.Params{
				Experiment: exp,
				OutputID:   target.Output,
				Source:     client,
				Logger:     logger,
			})
			if err != nil {
				return err
			}
			defer view.Close()

			if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") {
				if !cmd.Flags().Changed("start") {
					start = exp.Start
				}
				if !cmd.Flags().Changed("end") {
					end = exp.End
				}
				view.Viewport().SetViewRange(start-exp.Start, end-exp.Start)
			}

			if len(ids) == 0 {
				tree, err := view.RefreshTree(ctx)
				if err != nil {
					return fmt.Errorf("failed to fetch series tree: %w", err)
				}
				if tree.Model != nil {
					for _, entry := range tree.Model.Entries {
						if entry.HasData {
							ids = append(ids, entry.ID)
						}
					}
				}
				logger.Debug("fetch: using series from tree", "count", len(ids))
			}

			view.SetGeometry(interaction.Geometry{Width: float64(width)}, 1)
			view.SetSeries(ids)
			state, err := view.FetchSettled(ctx)
			if err != nil {
				return err
			}

			return cliutil.HandleOutput(cmd, result{
				Experiment:    exp.UUID,
				Output:        target.Output,
				Status:        state.Status,
				StatusMessage: state.StatusMessage,
				Query:         state.Query,
				Data:          state.Data,
			})
		},
	}

	cmd.Flags().StringSliceVar(&series, "series", nil, "Series IDs to fetch (default: every series with data)")
	cmd.Flags().IntVar(&width, "width", 80, "Plot width in columns, which sets the sample count")
	cmd.Flags().Int64Var(&start, "start", 0, "Start of the time range in absolute nanoseconds")
	cmd.Flags().Int64Var(&end, "end", 0, "End of the time range in absolute nanoseconds")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Give up after this long")
	cliutil.AddOutputFlags(cmd)

	return cmd
}
