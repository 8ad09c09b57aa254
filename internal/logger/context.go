package logger

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from the context.
// Returns zap.NewNop() if no logger is found.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// StartTurn derives a context whose logger carries a fresh turn_id.
func StartTurn(ctx context.Context, base *zap.Logger) (context.Context, string) {
	id := uuid.NewString()
	return ContextWithLogger(ctx, base.With(zap.String("turn_id", id))), id
}
