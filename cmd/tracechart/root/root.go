package root

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/traceviewer/tracechart/cmd/tracechart/root/config"
	"github.com/traceviewer/tracechart/cmd/tracechart/root/fetch"
	"github.com/traceviewer/tracechart/cmd/tracechart/root/version"
	"github.com/traceviewer/tracechart/cmd/tracechart/root/view"
)

// NewRootCmd creates the tracechart command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracechart <command>",
		Short: "Explore trace analysis charts",
		Long:  `Zoom, pan and select time ranges of XY charts served by a trace server.`,
		Example: heredoc.Doc(`
			# Open an interactive chart
			$ tracechart view --server http://localhost:8080/tsp/api --experiment <uuid> --output <output-id>

			# Fetch a chart once and print it as YAML
			$ tracechart fetch --experiment <uuid> --output <output-id> --format yaml
		`),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("server", "http://localhost:8080/tsp/api", "Base URL of the trace server API")
	flags.String("experiment", "", "UUID of the experiment to chart")
	flags.String("output", "", "ID of the XY output to chart")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("sentry-dsn", "", "Report errors to this Sentry DSN")

	for _, name := range []string{"server", "experiment", "output", "debug", "sentry-dsn"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	cmd.AddCommand(view.NewViewCmd())
	cmd.AddCommand(fetch.NewFetchCmd())
	cmd.AddCommand(config.NewConfigCmd())
	cmd.AddCommand(version.NewVersionCmd())

	return cmd
}
