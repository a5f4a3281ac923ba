package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/middleware"
	"github.com/mellystark/visitormanagement/internal/services"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// actorFrom describes the caller for audit records.
func actorFrom(c *gin.Context) services.Actor {
	return services.Actor{
		UserID:    middleware.UserID(c),
		Username:  middleware.Username(c),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
