// Package logging defines the structured-logging interface used by the
// client layers, plus an slog-backed implementation.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Debug(ctx, "request", "method", "POST", "path", "/login")
//
// Implementations must never be handed passwords, keys or plaintext entries.
type Logger interface {
	// Debug logs wire-level detail such as requests and status codes.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}
