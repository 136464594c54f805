package users

import (
	"strings"
	"time"

	"campaign-platform/internal/auth"
)

// User is a platform account. PasswordHash never leaves the service layer:
// it is excluded from JSON.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	IsSuperAdmin bool      `json:"isSuperAdmin"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u User) Principal() auth.Principal {
	return auth.Principal{UserID: u.ID, Email: u.Email, IsSuperAdmin: u.IsSuperAdmin}
}

// Membership is an active tenant_users row joined with its tenant.
type Membership struct {
	TenantID   string    `json:"tenantId"`
	TenantName string    `json:"name"`
	TenantSlug string    `json:"slug"`
	Role       string    `json:"role"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// NormalizeEmail case-folds an email so lookups and uniqueness are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
