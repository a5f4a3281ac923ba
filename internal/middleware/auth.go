package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/mellystark/visitormanagement/internal/auth"
	"github.com/mellystark/visitormanagement/pkg/errors"
	"github.com/mellystark/visitormanagement/pkg/response"
)

const (
	CtxClaimsKey   = "authClaims"
	CtxUserIDKey   = "userID"
	CtxUsernameKey = "username"
	CtxRoleKey     = "role"

	// accessTokenQueryParam carries the token for websocket upgrades, where
	// browsers cannot set an Authorization header.
	accessTokenQueryParam = "access_token"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return authenticate(jwt, false)
}

// AuthWithQueryToken behaves like Auth but also accepts the token from the
// access_token query parameter.
func AuthWithQueryToken(jwt *iauth.JWTService) gin.HandlerFunc {
	return authenticate(jwt, true)
}

func authenticate(jwt *iauth.JWTService, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok && allowQuery {
			token = strings.TrimSpace(c.Query(accessTokenQueryParam))
			ok = token != ""
		}
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		// Propagate identity into request context
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUsernameKey, claims.Username)
		c.Set(CtxRoleKey, claims.Role)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

// UserID returns the authenticated administrator id, or zero.
func UserID(c *gin.Context) uint {
	v, ok := c.Get(CtxUserIDKey)
	if !ok {
		return 0
	}
	id, _ := v.(uint)
	return id
}

// Username returns the authenticated administrator name, or "".
func Username(c *gin.Context) string {
	return c.GetString(CtxUsernameKey)
}
