package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/handlers"
)

func registerAuthRoutes(public, admin *gin.RouterGroup, limit gin.HandlerFunc, handler *handlers.AuthHandler) {
	public.POST("/auth/login", limit, handler.Login)
	admin.GET("/auth/me", handler.Me)
}

func registerScanRoutes(public *gin.RouterGroup, limit gin.HandlerFunc, handler *handlers.ScanHandler) {
	public.POST("/scan", limit, handler.Scan)
}
