package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/handlers"
)

func registerStatsRoutes(admin *gin.RouterGroup, handler *handlers.StatsHandler) {
	stats := admin.Group("/stats")
	{
		stats.GET("/overview", handler.Overview)
		stats.POST("/update", handler.Overview)
		stats.GET("/export-csv", handler.ExportCSV)
	}
}

func registerAdminRoutes(admin *gin.RouterGroup, handler *handlers.AdminHandler) {
	profile := admin.Group("/admin")
	{
		profile.GET("/profile", handler.Profile)
		profile.POST("/change-password", handler.ChangePassword)
		profile.POST("/change-theme", handler.ChangeTheme)
		profile.PUT("/update-profile", handler.UpdateProfile)
	}
}

func registerAuditRoutes(admin *gin.RouterGroup, handler *handlers.AuditHandler) {
	admin.GET("/audit", handler.List)
}
