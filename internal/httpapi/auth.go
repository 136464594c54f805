package httpapi

import (
	"net/http"

	"campaign-platform/internal/session"

	"github.com/gin-gonic/gin"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type selectTenantRequest struct {
	TenantID string `json:"tenantId"`
}

func (h Handlers) Register(c *gin.Context) {
	var req session.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Sessions.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h Handlers) Login(c *gin.Context) {
	var req session.LoginInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Sessions.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Sessions.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Logout always answers 200, even for a malformed body.
func (h Handlers) Logout(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	h.Sessions.Logout(c.Request.Context(), req.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h Handlers) Me(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	res, err := h.Sessions.Me(c.Request.Context(), claims)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) SelectTenant(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req selectTenantRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Sessions.SelectTenant(c.Request.Context(), principalOf(claims), req.TenantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
