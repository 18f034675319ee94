package auth

import (
	"agora/domain"
	"context"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the authenticated identity for downstream handlers.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(domain.Identity)
	return identity, ok
}
