package auth

import (
	"context"

	"github.com/google/uuid"
)

// Identity is a verified caller identity. Holding one means token
// verification succeeded; it says nothing about permissions.
type Identity struct {
	UserID uuid.UUID
}

type contextKey struct{}

var identityContextKey contextKey

// WithIdentity returns a context carrying the verified identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the verified identity, or nil for anonymous
// requests.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityContextKey).(*Identity)
	return identity
}
