package regcov

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with regcov-specific context.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithPNR adds a person identifier field to the logger.
func (l *Logger) WithPNR(pnr string) *Logger {
	return &Logger{
		Logger: l.Logger.With("pnr", pnr),
	}
}

// WithRegister adds register and period fields to the logger.
func (l *Logger) WithRegister(register, period string) *Logger {
	return &Logger{
		Logger: l.Logger.With("register", register, "period", period),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogLoad logs a register partition load.
func (l *Logger) LogLoad(ctx context.Context, register, period string, records int, err error) {
	lg := l.WithRegister(register, period)
	if err != nil {
		lg.ErrorContext(ctx, "register load failed",
			"error", err,
		)
	} else {
		lg.WithCount(records).DebugContext(ctx, "register load completed")
	}
}

// LogFamilyLoad logs a family relation load.
func (l *Logger) LogFamilyLoad(ctx context.Context, people int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "family relation load failed",
			"error", err,
		)
	} else {
		l.WithCount(people).DebugContext(ctx, "family relation load completed")
	}
}

// LogPrefetch logs a bulk cache load.
func (l *Logger) LogPrefetch(ctx context.Context, requested, loaded int, err error) {
	lg := l.WithCount(requested)
	if err != nil {
		lg.WarnContext(ctx, "prefetch stopped early",
			"loaded", loaded,
			"error", err,
		)
	} else {
		lg.InfoContext(ctx, "prefetch completed",
			"loaded", loaded,
		)
	}
}

// LogSnapshot logs a snapshot composition.
func (l *Logger) LogSnapshot(ctx context.Context, pnr string, date time.Time, err error) {
	lg := l.WithPNR(pnr)
	if err != nil {
		lg.DebugContext(ctx, "snapshot failed",
			"date", date.Format(time.DateOnly),
			"error", err,
		)
	} else {
		lg.DebugContext(ctx, "snapshot completed",
			"date", date.Format(time.DateOnly),
		)
	}
}
