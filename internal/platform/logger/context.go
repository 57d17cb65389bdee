package logger

import (
	"context"
	"log/slog"
)

// loggerKey is the context key under which a request/record-scoped logger
// travels. Unexported to keep the context contract inside this package.
type loggerKey struct{}

// WithLogger returns a copy of ctx carrying the given logger. Code lower
// in the call stack retrieves it with FromContext so per-record fields
// (request_id, worker_id) follow the work without threading a logger
// argument everywhere.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext retrieves the logger carried by ctx, falling back to the
// process default logger when none is present.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return slog.Default()
}

// FromContextOrDefault retrieves the logger carried by ctx, falling back
// to the provided default when none is present.
func FromContextOrDefault(ctx context.Context, def *slog.Logger) *slog.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	if def != nil {
		return def
	}
	return slog.Default()
}
