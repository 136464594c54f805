package rbac

import (
	"net/http"

	"campaign-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireTenant enforces the multi-tenant invariant: a tenant must be selected
// in the caller's claims. It must run after auth.Authenticate in the chain.
// Membership is validated when the tenant is selected, not here.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFrom(c.Request.Context())
		if !ok || !claims.HasTenant() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no tenant selected"})
			return
		}
		c.Next()
	}
}

// RequireSuperAdmin restricts platform administration routes.
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.IsSuperAdmin(c.Request.Context()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "super admin required"})
			return
		}
		c.Next()
	}
}
