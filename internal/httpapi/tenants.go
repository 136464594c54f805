package httpapi

import (
	"net/http"

	"campaign-platform/internal/tenants"

	"github.com/gin-gonic/gin"
)

// Admin routes. RBAC: super admin only (rbac.RequireSuperAdmin).

func (h Handlers) CreateTenant(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req tenants.CreateRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.Tenants.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h Handlers) DeleteTenant(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	if err := h.Tenants.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tenant deleted"})
}

func (h Handlers) AddTenantMember(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req tenants.AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.Tenants.AddMember(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h Handlers) RemoveTenantMember(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	res, err := h.Tenants.RemoveMember(c.Request.Context(), claims.UserID, c.Param("id"), c.Param("userId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
