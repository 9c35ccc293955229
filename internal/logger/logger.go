// Package logger builds the zerolog loggers used for diagnostics.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by the logger.
type ContextKey string

// LoggerKey is the context key for the logger instance.
const LoggerKey ContextKey = "logger"

// DefaultLevel is used when no level is configured.
const DefaultLevel = zerolog.WarnLevel

// New creates a console logger on w at the named level. An empty or unknown
// level falls back to DefaultLevel.
func New(w io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// NewWithWriter creates a JSON logger on w with no level filtering.
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// ParseLevel parses a zerolog level name.
func ParseLevel(level string) zerolog.Level {
	if level == "" {
		return DefaultLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return DefaultLevel
	}
	return lvl
}

// WithRunID tags every event of l with a fresh run id and returns both.
func WithRunID(l zerolog.Logger) (zerolog.Logger, string) {
	id := uuid.NewString()
	return l.With().Str("run_id", id).Logger(), id
}

// WithContext adds the logger to the context.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, l)
}

// FromContext retrieves the logger from the context or returns a stderr
// logger at DefaultLevel.
func FromContext(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return l
	}
	return New(os.Stderr, "")
}
