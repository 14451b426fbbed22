package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID      string
	FirebaseUID string
	BearerToken string
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller stored by RequireIdentity.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// GetPrincipal is PrincipalFromContext for gin handlers.
func GetPrincipal(c *gin.Context) (Principal, bool) {
	return PrincipalFromContext(c.Request.Context())
}
