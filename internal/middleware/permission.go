package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/pkg/errors"
	"github.com/mellystark/visitormanagement/pkg/response"
)

// RequireRole allows the request through only when the token carries role.
// It must run after Auth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(CtxUserIDKey); !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if c.GetString(CtxRoleKey) != role {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin restricts a route to administrators.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}
