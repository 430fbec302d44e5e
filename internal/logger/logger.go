package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Service is stamped on every line so coach logs can be told apart in a
// shared collector.
const Service = "delivery-coach"

// New creates a logger writing to stderr. format "console" or "text" gives
// human-readable output; anything else is JSON.
func New(level, format string) zerolog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(consoleOrJSON(w, format)).
		Level(lvl).
		With().
		Timestamp().
		Str("service", Service).
		Logger()
}

func consoleOrJSON(w io.Writer, format string) io.Writer {
	if format != "console" && format != "text" {
		return w
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
	}
}

// NewNop creates a no-op logger for testing.
func NewNop() zerolog.Logger {
	return zerolog.Nop()
}

// WithSession tags a logger with an analysis session id
func WithSession(log zerolog.Logger, sessionID string) zerolog.Logger {
	return log.With().Str("session_id", sessionID).Logger()
}

// FromContext returns the request-scoped logger stored by the request
// logging middleware, or fallback when there is none.
func FromContext(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return fallback
}
