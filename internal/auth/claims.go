package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// AccessClaims is the payload of a short-lived access token.
// Multi-tenant invariant: TenantID is either a tenant the user holds an active
// membership in, or nil when no tenant has been selected yet.
type AccessClaims struct {
	jwt.RegisteredClaims

	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	TenantID     *string   `json:"tenantId"`
	IsSuperAdmin bool      `json:"isSuperAdmin"`
	TokenType    TokenType `json:"typ"`
}

// HasTenant reports whether a tenant is selected.
func (c *AccessClaims) HasTenant() bool {
	return c != nil && c.TenantID != nil && *c.TenantID != ""
}

// Tenant returns the selected tenant id or "".
func (c *AccessClaims) Tenant() string {
	if !c.HasTenant() {
		return ""
	}
	return *c.TenantID
}

// RefreshClaims is the payload of a long-lived refresh token. It carries no
// tenant or role; those are re-derived on every refresh.
type RefreshClaims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"userId"`
	TokenType TokenType `json:"typ"`
}

// Principal is the subset of a user record needed to mint an access token.
type Principal struct {
	UserID       string
	Email        string
	IsSuperAdmin bool
}
