package rbac

import (
	"net/http"

	"authgate/internal/token"

	"github.com/gin-gonic/gin"
)

// RequireRole enforces the route's declared required role against the
// verified principal's roles. Deny is a plain 403; no detail about the
// hierarchy leaks to the caller.
func RequireRole(e *Evaluator, required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := token.PrincipalFrom(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !e.Authorize(p.Roles, required) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
