package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// With stores a child of the request logger carrying the given attributes.
func With(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, From(ctx).With(args...))
}

// From returns the request logger, falling back to the process logger.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, _ := ctx.Value(contextKey{}).(*slog.Logger); l != nil {
			return l
		}
	}
	return LoggerWrapper()
}
