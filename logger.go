package seqbond

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger with seqbond-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithScope adds a scope field to the logger (useful for tagging
// per-scope operations).
func (l *Logger) WithScope(scopeID uuid.UUID) *Logger {
	return &Logger{
		Logger: l.Logger.With("scope", scopeID.String()),
	}
}

// WithNamespace adds a namespace field to the logger.
func (l *Logger) WithNamespace(ns string) *Logger {
	return &Logger{
		Logger: l.Logger.With("namespace", ns),
	}
}

// LogEncode logs a scope encode operation.
func (l *Logger) LogEncode(ctx context.Context, scopeID uuid.UUID, units, bonds int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "encode failed",
			"scope", scopeID.String(),
			"units", units,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "encode completed",
			"scope", scopeID.String(),
			"units", units,
			"bonds", bonds,
		)
	}
}

// LogDecode logs a scope decode operation.
func (l *Logger) LogDecode(ctx context.Context, symbols int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "decode failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "decode completed",
			"symbols", symbols,
		)
	}
}

// LogRegister logs a span registration.
func (l *Logger) LogRegister(ctx context.Context, units int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "span registration failed",
			"units", units,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "span registered",
			"units", units,
		)
	}
}

// LogArchive logs an archive write.
func (l *Logger) LogArchive(ctx context.Context, name string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "archive failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "archive saved",
			"name", name,
			"bytes", size,
		)
	}
}

// LogSnapshot logs a cache snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, filename string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"filename", filename,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"filename", filename,
		)
	}
}
