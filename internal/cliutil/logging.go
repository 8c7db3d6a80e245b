package cliutil

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/getsentry/sentry-go"

	"github.com/traceviewer/tracechart/internal/observability"
)

// NewConsoleLogger logs human-readable lines to w.
func NewConsoleLogger(w io.Writer, debug bool, hub *sentry.Hub) *observability.CoreLogger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	return observability.NewCoreLogger(
		slog.New(handler),
		&observability.CoreLoggerParams{Hub: hub},
	)
}

// NewDebugFileLogger logs JSON lines to path when debug is set and discards
// everything otherwise. The returned function closes the file.
func NewDebugFileLogger(
	path string,
	debug bool,
	hub *sentry.Hub,
) (*observability.CoreLogger, func(), error) {
	var writer io.Writer = io.Discard
	closeFn := func() {}
	if debug {
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, nil, err
		}
		writer = file
		closeFn = func() { _ = file.Close() }
	}

	logger := observability.NewCoreLogger(
		slog.New(slog.NewJSONHandler(
			writer,
			&slog.HandlerOptions{
				Level: slog.LevelDebug,
			},
		)),
		&observability.CoreLoggerParams{Hub: hub},
	)
	return logger, closeFn, nil
}

// NewSentryHub returns a hub reporting to dsn, or nil when dsn is empty.
func NewSentryHub(dsn, release string) (*sentry.Hub, error) {
	if dsn == "" {
		return nil, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              dsn,
		AttachStacktrace: true,
		Release:          release,
	})
	if err != nil {
		return nil, err
	}
	return sentry.NewHub(client, sentry.NewScope()), nil
}
