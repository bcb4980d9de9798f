package middleware

import (
	"context"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
)

// ContextKey is the type of the request context keys set by this package.
type ContextKey string

// IdentityCtxKey holds the domain.Identity of the authenticated caller.
const IdentityCtxKey = ContextKey("identity")

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityCtxKey, id)
}

// IdentityFromContext returns the caller set by Auth. ok is false on public routes.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(IdentityCtxKey).(domain.Identity)
	if !ok || id.UserID == "" {
		return domain.Identity{}, false
	}
	return id, true
}
