package httpapi

import (
	"net/http"

	"authgate/internal/audit"
	"authgate/internal/identity"
	"authgate/internal/tenant"
	"authgate/internal/token"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Tokens *token.Service
	Users  *identity.Service
	Audit  *audit.Service
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login validates credentials and issues a token pair, opening a new
// session family. Every credential failure is the same 401; callers cannot
// probe which emails exist.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	user, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = h.Audit.LogLoginFailed(c.Request.Context(), c.ClientIP())
		abortUnauthorized(c)
		return
	}

	pair, err := h.Tokens.Issue(c.Request.Context(), user.ID, user.TenantID, user.Roles)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	_ = h.Audit.LogLogin(c.Request.Context(), user.TenantID, user.ID, pair.FamilyID, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// Refresh rotates a refresh token. Reuse, revocation and expiry all collapse
// to the same 401; reuse additionally revokes the family inside the service
// before this handler sees the error.
func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	pair, err := h.Tokens.Rotate(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortUnauthorized(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// Logout revokes the presented refresh token's whole family. Idempotent; an
// already-revoked or rotated token still logs its family out.
func (h Handlers) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if err := h.Tokens.RevokeByToken(c.Request.Context(), req.RefreshToken); err != nil {
		abortUnauthorized(c)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the verified principal plus the active tenant context.
func (h Handlers) Me(c *gin.Context) {
	p, err := token.PrincipalFrom(c.Request.Context())
	if err != nil {
		abortUnauthorized(c)
		return
	}
	tenantID, err := tenant.From(c.Request.Context())
	if err != nil {
		abortUnauthorized(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":   p.UserID,
		"tenant_id": tenantID,
		"roles":     p.Roles,
	})
}

// TenantInfo returns metadata for the caller's resolved tenant.
func (h Handlers) TenantInfo(c *gin.Context) {
	tenantID, err := tenant.From(c.Request.Context())
	if err != nil {
		abortUnauthorized(c)
		return
	}
	t, err := h.Users.Tenant(c.Request.Context(), tenantID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant_id": t.ID, "name": t.Name})
}

// --- Admin ---

// RevokeFamily force-revokes a session family. RBAC: admin.
func (h Handlers) RevokeFamily(c *gin.Context) {
	familyID := c.Param("family_id")
	if familyID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "family_id required"})
		return
	}
	if err := h.Tokens.RevokeFamily(c.Request.Context(), familyID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "revocation failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// abortUnauthorized is the single 401 shape for every verification failure,
// so responses carry no oracle about the internal cause.
func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}
