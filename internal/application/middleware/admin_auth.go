package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/bivex/subscription-metrics/internal/interfaces/http/response"
)

// RoleAdmin is the role claim that grants access to the stats API
const RoleAdmin = "admin"

// RequireRole ensures the authenticated token carries role.
// It must run after JWTMiddleware.Authenticate.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != role {
			response.Forbidden(c, "Admin access required")
			c.Abort()
			return
		}

		c.Set("admin_id", c.GetString("user_id"))
		c.Next()
	}
}
