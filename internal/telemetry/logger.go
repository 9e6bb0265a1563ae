// Package telemetry provides the logging, metrics and tracing used across
// the runtime and the CLI.
package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Logger is the structured logger used everywhere in the project, backed
// by log/slog. Derived loggers (WithFields, WithAgent, WithTrace) share
// the parent's output; only the logger that opened a file closes it.
type Logger struct {
	inner *slog.Logger
	level slog.Level
	json  bool

	mu    sync.Mutex
	sinks []io.Writer
	files []*os.File
}

// NewLogger returns an info-level text logger on stderr; verbose lowers
// the level to debug.
func NewLogger(verbose bool) *Logger {
	return NewLoggerWith("info", "text", verbose)
}

// NewLoggerWith builds a logger from the logging configuration's level and
// format strings. Unknown values fall back to info and text; verbose
// always wins and forces debug.
func NewLoggerWith(level, format string, verbose bool) *Logger {
	lvl := ParseLevel(level)
	if verbose {
		lvl = slog.LevelDebug
	}
	l := &Logger{
		level: lvl,
		json:  format == "json",
		sinks: []io.Writer{os.Stderr},
	}
	l.rebuild()
	return l
}

// ParseLevel maps a configuration string to a slog level. Unknown strings
// mean info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// rebuild recreates the slog handler over the current sinks. Callers hold
// the mutex or own the logger exclusively.
func (l *Logger) rebuild() {
	var w io.Writer = l.sinks[0]
	if len(l.sinks) > 1 {
		w = io.MultiWriter(l.sinks...)
	}
	opts := &slog.HandlerOptions{Level: l.level}
	if l.json {
		l.inner = slog.New(slog.NewJSONHandler(w, opts))
	} else {
		l.inner = slog.New(slog.NewTextHandler(w, opts))
	}
}

// WithFile tees output into an append-only log file, creating parent
// directories as needed. Used when logging.file is configured so agent
// activity survives past the terminal session.
func (l *Logger) WithFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, f)
	l.files = append(l.files, f)
	l.rebuild()
	return nil
}

// WithFields returns a derived logger carrying extra key-value pairs on
// every line. The derived logger shares this logger's output and owns no
// files.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{
		inner: l.inner.With(args...),
		level: l.level,
		json:  l.json,
	}
}

// WithAgent returns a derived logger tagged with the agent id.
func (l *Logger) WithAgent(agentID string) *Logger {
	return l.WithFields(map[string]interface{}{"agent": agentID})
}

// Close closes the files this logger opened via WithFile. Derived loggers
// own none and close nothing.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.files = nil
	return firstErr
}

// Slog exposes the underlying *slog.Logger for code that wants it raw.
func (l *Logger) Slog() *slog.Logger {
	return l.inner
}

func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.inner.Debug(msg, keyvals...)
}

func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.inner.Info(msg, keyvals...)
}

func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.inner.Warn(msg, keyvals...)
}

func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.inner.Error(msg, keyvals...)
}
