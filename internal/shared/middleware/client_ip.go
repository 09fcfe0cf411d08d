package middleware

import (
	"github.com/gin-gonic/gin"

	"campus-market-backend/internal/shared/utils"
)

const ContextClientIP = "client_ip"

// ClientIP resolves the caller's address once per request, honouring
// X-Forwarded-For and X-Real-IP. Register it before Logger and the rate limiter.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextClientIP, utils.ExtractClientIP(c))
		c.Next()
	}
}

// CurrentClientIP returns the address stored by ClientIP, resolving it on the
// spot when the middleware did not run.
func CurrentClientIP(c *gin.Context) string {
	if ip := c.GetString(ContextClientIP); ip != "" {
		return ip
	}
	return utils.ExtractClientIP(c)
}
