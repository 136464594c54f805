package httpapi

import (
	"net/http"

	"campaign-platform/internal/auth"
	"campaign-platform/internal/petitions"

	"github.com/gin-gonic/gin"
)

// Tenant routes run behind auth.Authenticate and rbac.RequireTenant, so the
// claims always carry a tenant here.

func (h Handlers) ListPetitions(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	out, err := h.Petitions.List(c.Request.Context(), claims.Tenant())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"petitions": out})
}

func (h Handlers) CreatePetition(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req petitions.CreateRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Petitions.Create(c.Request.Context(), claims.Tenant(), claims.UserID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h Handlers) GetPetition(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	p, err := h.Petitions.Get(c.Request.Context(), claims.Tenant(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h Handlers) DeletePetition(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	if err := h.Petitions.Delete(c.Request.Context(), claims.Tenant(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "petition deleted"})
}

func (h Handlers) ListSignatures(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	out, err := h.Petitions.Signatures(c.Request.Context(), claims.Tenant(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signatures": out})
}

// --- Public ---

func (h Handlers) GetPublicPetition(c *gin.Context) {
	p, err := h.Petitions.GetPublic(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SignPetition links the signature to the caller when a valid token was sent.
func (h Handlers) SignPetition(c *gin.Context) {
	var req petitions.SignRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, _ := auth.UserID(c.Request.Context())
	sig, err := h.Petitions.Sign(c.Request.Context(), c.Param("slug"), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sig)
}
