// Package logging adapts log/slog to the persons.Logger interface.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	persons "github.com/getpup/persons-api"
	"github.com/lmittmann/tint"
)

// ParseLevel converts a level name (debug, info, warn, error) to a slog.Level.
// An empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// PrettyLogger returns a colored, human-readable slog.Logger writing to dest.
func PrettyLogger(dest io.Writer, level slog.Level, noColor bool) *slog.Logger {
	slogOpts := &tint.Options{
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
		Level:      level,
	}
	return slog.New(tint.NewHandler(dest, slogOpts))
}

// Logger implements persons.Logger on top of a slog.Logger.
type Logger struct {
	slog *slog.Logger
}

// Compile-time check that Logger implements persons.Logger.
var _ persons.Logger = (*Logger)(nil)

// New wraps a slog.Logger.
func New(l *slog.Logger) *Logger {
	return &Logger{slog: l}
}

// With returns a Logger that adds keyvals to every record.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{slog: l.slog.With(keyvals...)}
}

// Slog returns the wrapped slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

func (l *Logger) Debug(ctx context.Context, msg string, keyvals ...any) {
	l.slog.DebugContext(ctx, msg, keyvals...)
}

func (l *Logger) Info(ctx context.Context, msg string, keyvals ...any) {
	l.slog.InfoContext(ctx, msg, keyvals...)
}

func (l *Logger) Warn(ctx context.Context, msg string, keyvals ...any) {
	l.slog.WarnContext(ctx, msg, keyvals...)
}

func (l *Logger) Error(ctx context.Context, msg string, keyvals ...any) {
	l.slog.ErrorContext(ctx, msg, keyvals...)
}
