package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"campus-market-backend/internal/shared/response"
	"campus-market-backend/pkg/jwt"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID = "userID"
	ContextRoles  = "roles"
)

// TokenValidator is satisfied by *jwt.Manager.
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware verifies the Bearer access token and puts the caller's
// user id (uuid.UUID) and roles ([]string) into the gin context.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := tokens.ValidateAccessToken(parts[1])
		if err != nil {
			log.Debug().Err(err).Str("request_id", c.GetString(ContextRequestID)).Msg("token rejected")
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			response.Unauthorized(c, "invalid user ID in token")
			c.Abort()
			return
		}

		roles := make([]string, 0, len(claims.Roles))
		for _, r := range claims.Roles {
			if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
				roles = append(roles, r)
			}
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextRoles, roles)

		c.Next()
	}
}

// CurrentUserID returns the authenticated user id, if any.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// CurrentRoles returns the authenticated user's roles (lower case).
func CurrentRoles(c *gin.Context) []string {
	v, ok := c.Get(ContextRoles)
	if !ok {
		return nil
	}
	roles, _ := v.([]string)
	return roles
}

// HasRole reports whether the caller holds role.
func HasRole(c *gin.Context, role string) bool {
	for _, r := range CurrentRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}
