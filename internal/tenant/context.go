// Package tenant carries the per-request building binding.
//
// The binding travels on the request's context.Context and nowhere else.
// Concurrent requests therefore cannot observe each other's tenant: there
// is no shared mutable slot to leak through. Everything downstream of the
// gateway middleware reads the binding with From.
package tenant

import "context"

type contextKey struct{}

// Bind returns a context carrying the given building id. An empty id
// binds the anonymous state, equivalent to Clear.
func Bind(ctx context.Context, buildingID string) context.Context {
	if buildingID == "" {
		return Clear(ctx)
	}
	return context.WithValue(ctx, contextKey{}, buildingID)
}

// From returns the bound building id, or "" and false when the request
// is anonymous.
func From(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Clear returns a context with no building bound. Handlers on public
// endpoints use this so a stale binding can never carry over.
func Clear(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, "")
}
