package vectable

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with vectable-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithTable adds a table field to the logger.
func (l *Logger) WithTable(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", name),
	}
}

// LogCreate logs a table creation.
func (l *Logger) LogCreate(ctx context.Context, table string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create table failed",
			"table", table,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "table created",
			"table", table,
			"rows", rows,
		)
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(ctx context.Context, table string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"table", table,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"table", table,
			"rows", rows,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, table, where string, deleted int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"table", table,
			"where", where,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"table", table,
			"where", where,
			"deleted", deleted,
		)
	}
}

// LogQuery logs a query.
func (l *Logger) LogQuery(ctx context.Context, table string, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"table", table,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"table", table,
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogIndexBuild logs an index build.
func (l *Logger) LogIndexBuild(ctx context.Context, table string, indexed uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"table", table,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index build completed",
			"table", table,
			"indexed_rows", indexed,
		)
	}
}

// LogDrop logs a dropped table or, with an empty table name, a dropped
// database.
func (l *Logger) LogDrop(ctx context.Context, table string, err error) {
	what := "table"
	if table == "" {
		what = "database"
	}
	if err != nil {
		l.ErrorContext(ctx, "drop "+what+" failed",
			"table", table,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, what+" dropped",
			"table", table,
		)
	}
}
