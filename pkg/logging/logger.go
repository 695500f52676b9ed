// Package logging provides the structured logger used across tinydesk.
// It wraps log/slog with a component attribute and a shared, adjustable level.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Logger is a structured logger scoped to a component.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is json (default) or text.
	Format string
	// File, when set, receives the log output (appended).
	File string
	// Output is used when File is empty. Defaults to stderr.
	Output io.Writer
}

// New creates a logger for the given component. The returned closer
// releases the log file, if one was opened.
func New(component string, opts Options) (*Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	out := opts.Output
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}
	if out == nil {
		out = os.Stderr
	}

	lv := new(slog.LevelVar)
	lv.Set(level)
	handlerOpts := &slog.HandlerOptions{Level: lv}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	case "text":
		handler = slog.NewTextHandler(out, handlerOpts)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q (valid: json, text)", opts.Format)
	}

	logger := slog.New(handler).With(
		slog.String("component", component),
		slog.String("system", "tinydesk"),
	)
	return &Logger{Logger: logger, level: lv}, closer, nil
}

// NewLogger creates a JSON logger on stderr at the given level.
func NewLogger(component string, level slog.Level) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(level)
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lv})
	return &Logger{
		Logger: slog.New(handler).With(slog.String("component", component)),
		level:  lv,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		level:  new(slog.LevelVar),
	}
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// ParseLevel parses a level name. Empty means info.
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

// SetLevel changes the level of this logger and every logger derived from it.
func (l *Logger) SetLevel(level slog.Level) {
	if l.level != nil {
		l.level.Set(level)
	}
}

// Level returns the current level.
func (l *Logger) Level() slog.Level {
	if l.level == nil {
		return slog.LevelInfo
	}
	return l.level.Level()
}

func (l *Logger) derive(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), level: l.level}
}

// Component returns a logger for a sub-component.
func (l *Logger) Component(name string) *Logger {
	return l.derive(slog.String("component", name))
}

// WithApp returns a logger with application fields.
func (l *Logger) WithApp(name string) *Logger {
	return l.derive(slog.String("app", name))
}

// WithClient returns a logger with remote client fields.
func (l *Logger) WithClient(id string) *Logger {
	return l.derive(slog.String("client_id", id))
}

// WithContext returns a logger carrying the trace and span IDs of the
// span active in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return l
	}
	return l.derive(
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
