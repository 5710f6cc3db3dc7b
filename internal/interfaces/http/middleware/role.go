package middleware

import (
	"net/http"

	"github.com/gescom/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
)

// RequireWrite rejects requests from roles that cannot mutate business
// records. It must run after JWTAuthMiddleware.
func RequireWrite() gin.HandlerFunc {
	return requireRole(func(r identity.Role) bool { return r.CanWrite() })
}

// RequireManage rejects requests from roles that cannot administer users
// and settings. It must run after JWTAuthMiddleware.
func RequireManage() gin.HandlerFunc {
	return requireRole(func(r identity.Role) bool { return r.CanManage() })
}

func requireRole(allowed func(identity.Role) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetJWTRole(c)
		if !role.IsValid() || !allowed(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Insufficient permissions",
				},
			})
			return
		}
		c.Next()
	}
}
