// Package logging is the diagnostic log of rainmd. Messages meant for the
// user go through internal/notice instead; this log is for debugging runs
// and is off below warn by default.
package logging

import "context"

// Logger writes leveled records with alternating key and value arguments,
// as in log/slog:
//
//	log.Error(ctx, "fetch failed, skipping unit", "scope", "tag", "page", 2)
//
// Importers attach a run id once with With and pass the child logger down.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}
