package httpapi

import (
	"context"

	"github.com/aashkara-band/site-api/internal/domain"
)

type sessionKey struct{}

type identityKey struct{}

func WithSession(ctx context.Context, sid domain.SessionID) context.Context {
	return context.WithValue(ctx, sessionKey{}, sid)
}

func SessionFromContext(ctx context.Context) (domain.SessionID, bool) {
	v, ok := ctx.Value(sessionKey{}).(domain.SessionID)
	return v, ok && v != ""
}

// WithIdentity stores the admin identity resolved for this request.
func WithIdentity(ctx context.Context, id domain.AdminIdentity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (domain.AdminIdentity, bool) {
	v, ok := ctx.Value(identityKey{}).(domain.AdminIdentity)
	return v, ok
}
