// Package http provides the internal API key middleware and per-caller rate limiting.
package http

import (
	"context"
)

// actorKey is a context key type for storing the authenticated actor.
type actorKey struct{}

// WithActor stores the authenticated actor in the context.
// This is called by InternalKeyMiddleware after the key is verified.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor retrieves the authenticated actor from the context.
// Returns ("", false) if the request did not pass InternalKeyMiddleware.
func GetActor(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey{}).(string)
	return actor, ok && actor != ""
}
