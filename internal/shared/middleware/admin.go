package middleware

import (
	"github.com/gin-gonic/gin"

	"campus-market-backend/internal/shared/response"
)

const roleAdmin = "admin"

// AdminMiddleware checks if user has admin role. Must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasRole(c, roleAdmin) {
			response.Forbidden(c, "Access denied: admin role required")
			c.Abort()
			return
		}

		c.Next()
	}
}
