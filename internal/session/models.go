package session

import (
	"time"

	"campaign-platform/internal/users"
)

// RefreshToken is a persisted refresh token row. A token is usable only
// while its row exists and ExpiresAt is in the future.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResult struct {
	User         users.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

type LoginResult struct {
	User         users.User         `json:"user"`
	Tenants      []users.Membership `json:"tenants"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}

type RefreshResult struct {
	AccessToken string `json:"accessToken"`
}

type SelectTenantResult struct {
	AccessToken string           `json:"accessToken"`
	Tenant      users.Membership `json:"tenant"`
}

type MeResult struct {
	User             users.User         `json:"user"`
	Tenants          []users.Membership `json:"tenants"`
	SelectedTenantID *string            `json:"selectedTenantId"`
}

const minPasswordLength = 6
