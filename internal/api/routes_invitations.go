package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/handlers"
)

// registerInvitationRoutes mounts the invitation surface. Public and admin
// routes share the /invitations prefix, so each GET route uses the :id
// wildcard; the public lookup reads it as a slug.
func registerInvitationRoutes(public, admin *gin.RouterGroup, limit gin.HandlerFunc, handler *handlers.InvitationHandler) {
	public.GET("/invitations/:id", limit, handler.GetBySlug)
	public.POST("/invitations/:id/request", limit, handler.Submit)

	invitations := admin.Group("/invitations")
	{
		invitations.GET("", handler.List)
		invitations.POST("", handler.Create)
		invitations.PUT("/:id", handler.Update)
		invitations.DELETE("/:id", handler.Delete)
		invitations.GET("/:id/visitors", handler.Visitors)
		invitations.GET("/:id/requests", handler.Requests)
		invitations.DELETE("/:id/visitors/:visitorId", handler.RemoveVisitor)
		invitations.POST("/requests/:requestId/approve", handler.Approve)
		invitations.POST("/requests/:requestId/reject", handler.Reject)
	}
}
