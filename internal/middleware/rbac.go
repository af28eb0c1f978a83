package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/pkg/response"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

// RequireRoles blocks callers whose role is not in the allowed set. It must
// run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Failure(c, result.Unauthorized("MISSING_TOKEN", "authorization header required"), nil)
			c.Abort()
			return
		}
		claims, ok := value.(*models.JWTClaims)
		if !ok {
			response.Failure(c, result.Unauthorized("INVALID_TOKEN", "invalid or expired token"), nil)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Failure(c, result.Forbidden("ROLE_NOT_ALLOWED", "your role may not perform this action"), nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
