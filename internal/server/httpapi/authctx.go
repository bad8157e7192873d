package httpapi

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/rentright-app/reference-service/internal/model"
)

type ctxKey string

const identityKey ctxKey = "rr.identity"

// Identity is the authenticated actor resolved from the access token.
type Identity struct {
	UserID uuid.UUID
	Role   model.Role
	Email  string
}

// WithIdentity stores the authenticated identity in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromCtx fetches the authenticated identity from context.
func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
