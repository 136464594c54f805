// Package session implements the account session lifecycle: registration,
// login, refresh, logout and tenant selection.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"campaign-platform/internal/apperr"
	"campaign-platform/internal/audit"
	"campaign-platform/internal/auth"
	"campaign-platform/internal/observability"
	"campaign-platform/internal/users"
	"campaign-platform/pkg/logger"

	"github.com/google/uuid"
)

// UserStore is the subset of the users repository the session workflow needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (users.User, error)
	GetByID(ctx context.Context, id string) (users.User, error)
	Create(ctx context.Context, u users.User) error
	Delete(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	ActiveMemberships(ctx context.Context, userID string) ([]users.Membership, error)
	ActiveMembership(ctx context.Context, userID, tenantID string) (users.Membership, error)
}

// TokenStore persists refresh token rows.
type TokenStore interface {
	Insert(ctx context.Context, t RefreshToken) error
	FindValid(ctx context.Context, token string, now time.Time) (RefreshToken, error)
	Delete(ctx context.Context, token string) error
}

const (
	msgInvalidCredentials = "invalid email or password"
	msgDeactivated        = "account is deactivated"
	msgInvalidRefresh     = "invalid or expired refresh token"
	msgAccessDenied       = "access denied"
)

type Service struct {
	users  UserStore
	tokens TokenStore
	jwt    *auth.Manager
	audit  *audit.Service
	clock  func() time.Time
}

func NewService(u UserStore, t TokenStore, m *auth.Manager, a *audit.Service) *Service {
	return &Service{users: u, tokens: t, jwt: m, audit: a, clock: time.Now}
}

// Register creates an account and opens its first session.
func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	email := users.NormalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if email == "" || in.Password == "" || fullName == "" {
		return RegisterResult{}, apperr.Validation("email, password and fullName are required")
	}
	if len(in.Password) < minPasswordLength {
		return RegisterResult{}, apperr.Validation("password must be at least 6 characters")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return RegisterResult{}, apperr.Unexpected(err)
	}

	now := s.clock().UTC()
	u := users.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			observability.SessionEventsTotal.WithLabelValues("register", "conflict").Inc()
			return RegisterResult{}, apperr.Conflict("email already registered", err)
		}
		return RegisterResult{}, apperr.Unexpected(err)
	}

	access, refresh, err := s.openSession(ctx, now, u, "")
	if err != nil {
		// A user without a session would block re-registration of the email.
		if derr := s.users.Delete(ctx, u.ID); derr != nil {
			logger.From(ctx).Error("rollback registration failed", "user_id", u.ID, "err", derr)
		}
		return RegisterResult{}, err
	}

	observability.SessionEventsTotal.WithLabelValues("register", "success").Inc()
	s.audit.Record(ctx, audit.Event{Type: audit.EventTypeRegister, ActorUserID: u.ID})

	return RegisterResult{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

// Login verifies credentials. Unknown email and wrong password produce the
// same error. A user with exactly one active membership gets that tenant
// preselected in the access token.
func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	email := users.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return LoginResult{}, apperr.Validation("email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			// Equalize timing with the wrong-password path.
			auth.VerifyPassword(in.Password, dummyHash())
			observability.SessionEventsTotal.WithLabelValues("login", "rejected").Inc()
			return LoginResult{}, apperr.Authentication(msgInvalidCredentials)
		}
		return LoginResult{}, apperr.Unexpected(err)
	}
	if !u.IsActive {
		observability.SessionEventsTotal.WithLabelValues("login", "deactivated").Inc()
		return LoginResult{}, apperr.Authorization(msgDeactivated)
	}
	if !auth.VerifyPassword(in.Password, u.PasswordHash) {
		observability.SessionEventsTotal.WithLabelValues("login", "rejected").Inc()
		return LoginResult{}, apperr.Authentication(msgInvalidCredentials)
	}

	memberships, err := s.users.ActiveMemberships(ctx, u.ID)
	if err != nil {
		return LoginResult{}, apperr.Unexpected(err)
	}
	tenantID := ""
	if len(memberships) == 1 {
		tenantID = memberships[0].TenantID
	}

	now := s.clock().UTC()
	access, refresh, err := s.openSession(ctx, now, u, tenantID)
	if err != nil {
		return LoginResult{}, err
	}

	if err := s.users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		logger.From(ctx).Warn("update last login failed", "user_id", u.ID, "err", err)
	}

	observability.SessionEventsTotal.WithLabelValues("login", "success").Inc()
	s.audit.Record(ctx, audit.Event{Type: audit.EventTypeLogin, ActorUserID: u.ID, TenantID: tenantID})

	return LoginResult{User: u, Tenants: memberships, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh mints a new access token from a refresh token that still has a
// live persisted row. The new token carries no tenant selection.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	if refreshToken == "" {
		return RefreshResult{}, apperr.Validation("refreshToken is required")
	}

	now := s.clock().UTC()
	claims, err := s.jwt.VerifyRefreshToken(refreshToken, now)
	if err != nil {
		observability.SessionEventsTotal.WithLabelValues("refresh", "rejected").Inc()
		return RefreshResult{}, apperr.Authentication(msgInvalidRefresh)
	}

	row, err := s.tokens.FindValid(ctx, refreshToken, now)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			observability.SessionEventsTotal.WithLabelValues("refresh", "revoked").Inc()
			return RefreshResult{}, apperr.Authentication(msgInvalidRefresh)
		}
		return RefreshResult{}, apperr.Unexpected(err)
	}
	if row.UserID != claims.UserID {
		observability.SessionEventsTotal.WithLabelValues("refresh", "rejected").Inc()
		return RefreshResult{}, apperr.Authentication(msgInvalidRefresh)
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return RefreshResult{}, apperr.Authentication("user not found or deactivated")
		}
		return RefreshResult{}, apperr.Unexpected(err)
	}
	if !u.IsActive {
		return RefreshResult{}, apperr.Authentication("user not found or deactivated")
	}

	access, err := s.jwt.IssueAccessToken(now, u.Principal(), "")
	if err != nil {
		return RefreshResult{}, apperr.Unexpected(err)
	}

	observability.SessionEventsTotal.WithLabelValues("refresh", "success").Inc()
	return RefreshResult{AccessToken: access}, nil
}

// Logout deletes the persisted row for refreshToken. It never fails from the
// caller's point of view.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := s.tokens.Delete(ctx, refreshToken); err != nil {
		logger.From(ctx).Warn("delete refresh token failed", "err", err)
	}
	observability.SessionEventsTotal.WithLabelValues("logout", "success").Inc()

	if claims, err := s.jwt.VerifyRefreshToken(refreshToken, s.clock().UTC()); err == nil {
		s.audit.Record(ctx, audit.Event{Type: audit.EventTypeLogout, ActorUserID: claims.UserID})
	}
}

// SelectTenant issues an access token scoped to tenantID. Unknown tenants and
// tenants the caller does not belong to are indistinguishable.
func (s *Service) SelectTenant(ctx context.Context, p auth.Principal, tenantID string) (SelectTenantResult, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return SelectTenantResult{}, apperr.Validation("tenantId is required")
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		return SelectTenantResult{}, apperr.Authorization(msgAccessDenied)
	}

	m, err := s.users.ActiveMembership(ctx, p.UserID, tenantID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			observability.SessionEventsTotal.WithLabelValues("select_tenant", "denied").Inc()
			return SelectTenantResult{}, apperr.Authorization(msgAccessDenied)
		}
		return SelectTenantResult{}, apperr.Unexpected(err)
	}

	access, err := s.jwt.IssueAccessToken(s.clock().UTC(), p, m.TenantID)
	if err != nil {
		return SelectTenantResult{}, apperr.Unexpected(err)
	}

	observability.SessionEventsTotal.WithLabelValues("select_tenant", "success").Inc()
	s.audit.Record(ctx, audit.Event{Type: audit.EventTypeTenantSelected, ActorUserID: p.UserID, TenantID: m.TenantID})

	return SelectTenantResult{AccessToken: access, Tenant: m}, nil
}

// Me describes the caller behind claims.
func (s *Service) Me(ctx context.Context, claims *auth.AccessClaims) (MeResult, error) {
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return MeResult{}, apperr.NotFound("user not found")
		}
		return MeResult{}, apperr.Unexpected(err)
	}
	memberships, err := s.users.ActiveMemberships(ctx, u.ID)
	if err != nil {
		return MeResult{}, apperr.Unexpected(err)
	}
	return MeResult{User: u, Tenants: memberships, SelectedTenantID: claims.TenantID}, nil
}

// openSession issues both tokens and persists the refresh row.
func (s *Service) openSession(ctx context.Context, now time.Time, u users.User, tenantID string) (string, string, error) {
	access, err := s.jwt.IssueAccessToken(now, u.Principal(), tenantID)
	if err != nil {
		return "", "", apperr.Unexpected(err)
	}
	refresh, err := s.jwt.IssueRefreshToken(now, u.ID)
	if err != nil {
		return "", "", apperr.Unexpected(err)
	}
	row := RefreshToken{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Token:     refresh,
		ExpiresAt: now.Add(s.jwt.RefreshTTL()),
		CreatedAt: now,
	}
	if err := s.tokens.Insert(ctx, row); err != nil {
		return "", "", apperr.Unexpected(err)
	}
	return access, refresh, nil
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = auth.HashPassword(uuid.NewString())
	})
	return dummy
}
