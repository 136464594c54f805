package main

import (
	"net/http"

	"campaign-platform/internal/auth"
	"campaign-platform/internal/httpapi"
	"campaign-platform/internal/observability"
	"campaign-platform/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, m *auth.Manager) {
	authMW := auth.Authenticate(m)

	// public
	r.GET("/healthz", h.Health)
	r.GET("/readyz", h.Ready)
	r.GET("/metrics", observability.Handler())

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", h.Logout)

		authGroup.GET("/me", authMW, h.Me)
		authGroup.POST("/select-tenant", authMW, h.SelectTenant)
	}

	// Tenant-scoped: RequireTenant depends on claims attached by authMW.
	tenantScoped := api.Group("/petitions")
	tenantScoped.Use(authMW, rbac.RequireTenant())
	{
		tenantScoped.GET("", h.ListPetitions)
		tenantScoped.POST("", h.CreatePetition)
		tenantScoped.GET("/:id", h.GetPetition)
		tenantScoped.DELETE("/:id", h.DeletePetition)
		tenantScoped.GET("/:id/signatures", h.ListSignatures)
	}

	public := api.Group("/public/petitions")
	public.Use(auth.OptionalAuthenticate(m))
	{
		public.GET("/:slug", h.GetPublicPetition)
		public.POST("/:slug/sign", h.SignPetition)
	}

	admin := api.Group("/admin")
	admin.Use(authMW, rbac.RequireSuperAdmin())
	{
		admin.POST("/tenants", h.CreateTenant)
		admin.DELETE("/tenants/:id", h.DeleteTenant)
		admin.POST("/tenants/:id/users", h.AddTenantMember)
		admin.DELETE("/tenants/:id/users/:userId", h.RemoveTenantMember)
	}
}

// withCORS wraps the router. An empty origin list allows any origin without
// credentials; bearer tokens travel in headers, not cookies.
func withCORS(h http.Handler, origins []string) http.Handler {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowCredentials = true
	}
	return cors.New(opts).Handler(h)
}
