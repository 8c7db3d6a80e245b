package observability

import (
	"io"
	"log/slog"

	"github.com/getsentry/sentry-go"
)

type Tags map[string]string

// NewTags creates a new Tags from a mix of slog.Attr and a string and its
// corresponding value. It ignores incomplete pairs and other types.
func NewTags(args ...any) Tags {
	tags := Tags{}
	for len(args) > 0 {
		switch x := args[0].(type) {
		case slog.Attr:
			tags[x.Key] = x.Value.String()
			args = args[1:]
		case string:
			if len(args) < 2 {
				return tags
			}
			attr := slog.Any(x, args[1])
			tags[attr.Key] = attr.Value.String()
			args = args[2:]
		default:
			args = args[1:]
		}
	}
	return tags
}

type CoreLoggerParams struct {
	// Hub receives captured errors and messages. Optional.
	Hub *sentry.Hub

	// Tags are attached to every message and captured event.
	Tags Tags
}

// CoreLogger is a structured logger that can also report to Sentry.
type CoreLogger struct {
	*slog.Logger
	baseTags Tags
	hub      *sentry.Hub
	limiter  *CaptureRateLimiter
}

func NewCoreLogger(logger *slog.Logger, params *CoreLoggerParams) *CoreLogger {
	if params == nil {
		params = &CoreLoggerParams{}
	}

	tags := Tags{}
	var args []any
	for key, value := range params.Tags {
		args = append(args, slog.String(key, value))
		tags[key] = value
	}

	cl := &CoreLogger{
		Logger:   logger.With(args...),
		baseTags: tags,
		hub:      params.Hub,
	}
	if cl.hub != nil {
		cl.limiter = NewCaptureRateLimiter(0)
	}
	return cl
}

// withArgs merges args with the logger's base tags, which take precedence.
func (cl *CoreLogger) withArgs(args ...any) Tags {
	tags := NewTags(args...)
	for key, value := range cl.baseTags {
		tags[key] = value
	}
	return tags
}

// With returns a derived logger that includes the given tags in each message.
func (cl *CoreLogger) With(args ...any) *CoreLogger {
	return &CoreLogger{
		Logger:   cl.Logger.With(args...),
		baseTags: cl.baseTags,
		hub:      cl.hub,
		limiter:  cl.limiter,
	}
}

// CaptureError logs an error and sends it to Sentry.
func (cl *CoreLogger) CaptureError(err error, args ...any) {
	if err == nil {
		return
	}
	cl.Error(err.Error(), args...)

	if cl.hub == nil || !cl.limiter.AllowCapture(err.Error()) {
		return
	}
	cl.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(cl.withArgs(args...))
		cl.hub.CaptureException(err)
	})
}

// CaptureWarn logs a warning and sends it to Sentry.
func (cl *CoreLogger) CaptureWarn(msg string, args ...any) {
	cl.Warn(msg, args...)
	cl.captureMessage(msg, sentry.LevelWarning, args...)
}

// CaptureInfo logs an info message and sends it to Sentry.
func (cl *CoreLogger) CaptureInfo(msg string, args ...any) {
	cl.Info(msg, args...)
	cl.captureMessage(msg, sentry.LevelInfo, args...)
}

func (cl *CoreLogger) captureMessage(msg string, level sentry.Level, args ...any) {
	if cl.hub == nil || !cl.limiter.AllowCapture(msg) {
		return
	}
	cl.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		scope.SetTags(cl.withArgs(args...))
		cl.hub.CaptureMessage(msg)
	})
}

// GetTags returns the tags associated with the logger.
//
// Used for testing.
func (cl *CoreLogger) GetTags() Tags {
	return cl.baseTags
}

// NewNoOpLogger returns a logger that discards all messages.
func NewNoOpLogger() *CoreLogger {
	return NewCoreLogger(
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
		nil,
	)
}
