package middleware

import (
	"context"

	"github.com/harborline/storefront-backend/pkg/types"
)

type contextKey string

const (
	ctxActor      contextKey = "actor"
	ctxSessionKey contextKey = "session_key"
)

// WithActor injects the authenticated principal into the context.
func WithActor(ctx context.Context, actor types.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

// ActorFromContext returns the authenticated principal, if any.
func ActorFromContext(ctx context.Context) (types.Actor, bool) {
	if ctx == nil {
		return types.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(types.Actor)
	return actor, ok
}

// WithSessionKey injects the anonymous cart session key.
func WithSessionKey(ctx context.Context, key string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionKey, key)
}

// SessionKeyFromContext returns the anonymous cart session key, if any.
func SessionKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionKey).(string); ok {
		return v
	}
	return ""
}
