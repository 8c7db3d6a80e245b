package view

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/traceviewer/tracechart/cmd/tracechart/root/version"
	"github.com/traceviewer/tracechart/internal/chartview"
	"github.com/traceviewer/tracechart/internal/cliutil"
	"github.com/traceviewer/tracechart/internal/hostbridge"
	"github.com/traceviewer/tracechart/internal/metrics"
	"github.com/traceviewer/tracechart/internal/settings"
	"github.com/traceviewer/tracechart/internal/signals"
	"github.com/traceviewer/tracechart/internal/statestore"
	"github.com/traceviewer/tracechart/internal/termview"
)

const debugLogFile = "tracechart.debug.log"

func NewViewCmd() *cobra.Command {
	var series []string
	var settingsPath string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open an interactive chart",
		Long: heredoc.Doc(`
			Open an XY output of an experiment as an interactive terminal chart.

			Zoom with w/s or the mouse wheel while holding Ctrl, pan with a/d or
			by dragging with the right button, and select a time range by
			dragging with the left button. Press ? for all key bindings.
		`),
		Example: heredoc.Doc(`
			# Open the CPU usage chart of an experiment
			$ tracechart view --experiment <uuid> --output org.eclipse.tracecompass.analysis.os.linux.core.cpuusage.CpuUsageDataProvider

			# Share zoom and selection with a host over a websocket
			$ tracechart view --experiment <uuid> --output <output-id> --host-url ws://localhost:3000/signals
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

			hub, err := cliutil.NewSentryHub(viper.GetString("sentry-dsn"), version.Version)
			if err != nil {
				return fmt.Errorf("failed to set up error reporting: %w", err)
			}
			if hub != nil {
				defer hub.Flush(2 * time.Second)
			}

			logger, closeLog, err := cliutil.NewDebugFileLogger(debugLogFile, viper.GetBool("debug"), hub)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx := cmd.Context()
			client, exp, err := cliutil.OpenExperiment(ctx, target, logger)
			if err != nil {
				return err
			}

			fs := afero.NewOsFs()
			if settingsPath == "" {
				settingsPath = settings.DefaultPath()
			}
			manager := settings.NewManager(fs, settingsPath, logger)
			store := statestore.New(fs, filepath.Join(filepath.Dir(manager.Path()), "state"))

			registry := prometheus.NewRegistry()
			if addr := cliutil.GetString(cmd, "metrics-addr"); addr != "" {
				shutdown := cliutil.ServeMetrics(addr, registry, logger)
				defer shutdown()
			}

			bus := signals.NewBus()
			if hostURL := cliutil.GetString(cmd, "host-url"); hostURL != "" {
				conn, err := hostbridge.Connect(ctx, hostURL, nil, bus, logger)
				if err != nil {
					return fmt.Errorf("failed to connect to host: %w", err)
				}
				defer conn.Close()
			}

			model, err := termview.NewModel(termview.Params{
				Chart: chartview.Params{
					Experiment: exp,
					OutputID:   target.Output,
					Source:     client,
					Bus:        bus,
					Store:      store,
					Settings:   manager.Snapshot(),
					Metrics:    metrics.NewPipeline(registry),
				},
				Series: ids,
				Logger: logger,
			})
			if err != nil {
				return err
			}
			defer model.Close()

			p := tea.NewProgram(model,
				tea.WithContext(ctx),
				tea.WithAltScreen(),
				tea.WithMouseAllMotion(),
			)
			if _, err := p.Run(); err != nil {
				logger.Error(fmt.Sprintf("view: %v", err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&series, "series", nil, "Series IDs to show (default: every series with data)")
	cmd.Flags().StringVar(&settingsPath, "settings", "", "Chart settings file (default is the user config directory)")
	cmd.Flags().String("host-url", "", "Websocket URL of a host to share zoom and selection with")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	_ = viper.BindPFlag("host-url", cmd.Flags().Lookup("host-url"))
	_ = viper.BindPFlag("metrics-addr", cmd.Flags().Lookup("metrics-addr"))

	return cmd
}
