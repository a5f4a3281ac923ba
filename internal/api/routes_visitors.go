package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/handlers"
)

func registerVisitorRoutes(admin *gin.RouterGroup, handler *handlers.VisitorHandler) {
	visitors := admin.Group("/visitors")
	{
		visitors.GET("", handler.List)
		visitors.POST("", handler.Create)
		visitors.GET("/filter", handler.Filter)
		visitors.GET("/export-excel", handler.ExportExcel)
		visitors.GET("/export-csv", handler.ExportCSV)
		visitors.GET("/:id", handler.Get)
		visitors.PUT("/:id", handler.Update)
		visitors.DELETE("/:id", handler.Delete)
		visitors.GET("/:id/qrcode", handler.QRCode)
		visitors.POST("/:id/send-qrcode-email", handler.SendQRCodeEmail)
	}
}

func registerLogRoutes(admin *gin.RouterGroup, handler *handlers.LogHandler) {
	logs := admin.Group("/logs")
	{
		logs.GET("", handler.ForVisitor)
		logs.GET("/all", handler.All)
		logs.GET("/export-excel", handler.ExportExcel)
		logs.GET("/export-csv", handler.ExportCSV)
		logs.PUT("/:id/exit", handler.ManualExit)
	}
	admin.GET("/reports/visitor-logs", handler.Report)

	// Older console builds use the /visitorlogs prefix.
	legacy := admin.Group("/visitorlogs")
	{
		legacy.GET("", handler.ForVisitor)
		legacy.PUT("/:id/exit", handler.ManualExit)
	}
}
