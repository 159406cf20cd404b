package main

import (
	"authgate/internal/httpapi"
	"authgate/internal/pipeline"
	"authgate/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, p *pipeline.Pipeline, h httpapi.Handlers) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Token endpoints are public by definition; login and refresh carry their
	// own credentials, logout carries the refresh token to revoke.
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
	}

	// Protected routes run the full pipeline:
	// verify -> resolve tenant -> tenant context -> RBAC -> handler.
	me := r.Group("/")
	me.Use(p.Stages(pipeline.Policy{RequiresAuth: true})...)
	{
		me.GET("/me", h.Me)
		me.GET("/tenant", h.TenantInfo)
	}

	admin := r.Group("/admin")
	admin.Use(p.Stages(pipeline.Policy{RequiresAuth: true, RequiredRole: rbac.RoleAdmin})...)
	{
		admin.POST("/sessions/:family_id/revoke", h.RevokeFamily)
	}
}
