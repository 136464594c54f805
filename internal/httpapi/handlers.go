package httpapi

import (
	"context"
	"net/http"

	"campaign-platform/internal/apperr"
	"campaign-platform/internal/auth"
	"campaign-platform/internal/petitions"
	"campaign-platform/internal/session"
	"campaign-platform/internal/tenants"
	"campaign-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

type SessionService interface {
	Register(ctx context.Context, in session.RegisterInput) (session.RegisterResult, error)
	Login(ctx context.Context, in session.LoginInput) (session.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (session.RefreshResult, error)
	Logout(ctx context.Context, refreshToken string)
	SelectTenant(ctx context.Context, p auth.Principal, tenantID string) (session.SelectTenantResult, error)
	Me(ctx context.Context, claims *auth.AccessClaims) (session.MeResult, error)
}

type PetitionService interface {
	List(ctx context.Context, tenantID string) ([]petitions.Petition, error)
	Create(ctx context.Context, tenantID, userID string, req petitions.CreateRequest) (petitions.Petition, error)
	Get(ctx context.Context, tenantID, id string) (petitions.Petition, error)
	Delete(ctx context.Context, tenantID, id string) error
	Signatures(ctx context.Context, tenantID, id string) ([]petitions.Signature, error)
	GetPublic(ctx context.Context, slug string) (petitions.Petition, error)
	Sign(ctx context.Context, slug, userID string, req petitions.SignRequest) (petitions.Signature, error)
}

type TenantService interface {
	Create(ctx context.Context, actorID string, req tenants.CreateRequest) (tenants.Tenant, error)
	AddMember(ctx context.Context, actorID, tenantID string, req tenants.AddMemberRequest) (tenants.Member, error)
	Delete(ctx context.Context, actorID, tenantID string) error
	RemoveMember(ctx context.Context, actorID, tenantID, userID string) (tenants.RemoveMemberResult, error)
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Sessions  SessionService
	Petitions PetitionService
	Tenants   TenantService
	Checks    []Check
}

// writeError answers with the error's status and public message.
// Unexpected errors are logged with their cause and never echoed back.
func writeError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "err", err)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

// bindJSON decodes the body into dst and answers 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return false
	}
	return true
}

// mustClaims returns claims attached by auth.Authenticate. A missing value
// means the route was registered without it.
func mustClaims(c *gin.Context) (*auth.AccessClaims, bool) {
	claims, ok := auth.ClaimsFrom(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
		return nil, false
	}
	return claims, true
}

func principalOf(claims *auth.AccessClaims) auth.Principal {
	return auth.Principal{UserID: claims.UserID, Email: claims.Email, IsSuperAdmin: claims.IsSuperAdmin}
}
