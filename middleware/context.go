package middleware

import (
	"context"

	"github.com/crmbridge/external-service/issuer"
)

// Context key type to avoid collisions
type contextKey string

const (
	// PrincipalKey is the context key for the authenticated principal
	PrincipalKey contextKey = "principal"
)

// WithPrincipal adds the authenticated principal to the context.
func WithPrincipal(ctx context.Context, principal *issuer.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// GetPrincipalFromContext retrieves the authenticated principal from context.
// Returns nil when the request has not passed the auth middleware.
func GetPrincipalFromContext(ctx context.Context) *issuer.Principal {
	if val := ctx.Value(PrincipalKey); val != nil {
		if principal, ok := val.(*issuer.Principal); ok {
			return principal
		}
	}
	return nil
}
