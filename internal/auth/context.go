package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxClaims ctxKey = iota
)

// WithClaims stores verified access claims in ctx.
func WithClaims(ctx context.Context, claims *AccessClaims) context.Context {
	return context.WithValue(ctx, ctxClaims, claims)
}

// ClaimsFrom returns the claims attached by Authenticate/OptionalAuthenticate.
// ok is false for anonymous requests.
func ClaimsFrom(ctx context.Context) (*AccessClaims, bool) {
	c, ok := ctx.Value(ctxClaims).(*AccessClaims)
	return c, ok && c != nil
}

func UserID(ctx context.Context) (string, error) {
	if c, ok := ClaimsFrom(ctx); ok && c.UserID != "" {
		return c.UserID, nil
	}
	return "", errors.New("userId not in context")
}

func TenantID(ctx context.Context) (string, error) {
	if c, ok := ClaimsFrom(ctx); ok && c.HasTenant() {
		return *c.TenantID, nil
	}
	return "", errors.New("tenantId not in context")
}

func IsSuperAdmin(ctx context.Context) bool {
	c, ok := ClaimsFrom(ctx)
	return ok && c.IsSuperAdmin
}
