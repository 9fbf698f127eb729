package authn

import (
	"context"

	"github.com/redfield-bmc/redfield/internal/privilege"
)

// Principal is a verified identity attached to a request. Immutable once
// created; it lives in the request context for the duration of handling and
// inside a session for the lifetime of that session.
type Principal struct {
	Username string
	Role     privilege.Role
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, if present.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
