package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mellystark/visitormanagement/internal/app"
	iauth "github.com/mellystark/visitormanagement/internal/auth"
	"github.com/mellystark/visitormanagement/internal/handlers"
	"github.com/mellystark/visitormanagement/internal/middleware"
	"github.com/mellystark/visitormanagement/internal/monitoring"
	"github.com/mellystark/visitormanagement/internal/monitoring/checks"
	"github.com/mellystark/visitormanagement/internal/realtime"
)

// Dependencies are the collaborators required to build the HTTP router.
type Dependencies struct {
	Config   *app.Config
	DB       *gorm.DB
	JWT      *iauth.JWTService
	Services *Services
	Hub      *realtime.Hub

	// RateStore backs the public endpoint limiter. Defaults to in-memory.
	RateStore middleware.RateStore
	// Health defaults to a manager with only the database check.
	Health *monitoring.HealthManager
}

func (d *Dependencies) validate() error {
	switch {
	case d.Config == nil:
		return fmt.Errorf("config must be provided")
	case d.DB == nil:
		return fmt.Errorf("database handle must be provided")
	case d.JWT == nil:
		return fmt.Errorf("jwt service must be provided")
	case d.Services == nil:
		return fmt.Errorf("services must be provided")
	case d.Hub == nil:
		return fmt.Errorf("realtime hub must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.RateStore == nil {
		deps.RateStore = middleware.NewMemoryRateStore()
	}
	if deps.Health == nil {
		deps.Health = monitoring.NewHealthManager(checks.Database(deps.DB, 0))
	}

	cfg := deps.Config
	svc := deps.Services

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins...))

	// Unauthenticated endpoints hit by kiosks and the public invitation page.
	publicLimit := middleware.RateLimit(deps.RateStore, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window)
	requireAdmin := []gin.HandlerFunc{middleware.Auth(deps.JWT), middleware.RequireAdmin()}

	registerHealthRoutes(r, cfg, handlers.NewHealthHandler(deps.Health))
	registerMetricsRoutes(r, cfg)

	api := r.Group("/api")
	admin := api.Group("", requireAdmin...)

	registerAuthRoutes(api, admin, publicLimit, handlers.NewAuthHandler(svc.Admins, deps.JWT))
	registerScanRoutes(api, publicLimit, handlers.NewScanHandler(svc.Ledger))
	registerInvitationRoutes(api, admin, publicLimit, handlers.NewInvitationHandler(svc.Invitations))
	registerVisitorRoutes(admin, handlers.NewVisitorHandler(svc.Visitors, svc.Exports, svc.Credentials))
	registerLogRoutes(admin, handlers.NewLogHandler(svc.Ledger, svc.Exports))
	registerStatsRoutes(admin, handlers.NewStatsHandler(svc.Stats, svc.Exports))
	registerAdminRoutes(admin, handlers.NewAdminHandler(svc.Admins))
	registerAuditRoutes(admin, handlers.NewAuditHandler(svc.Audit))

	realtimeHandler := handlers.NewRealtimeHandler(deps.Hub)
	r.GET("/ws", middleware.AuthWithQueryToken(deps.JWT), middleware.RequireAdmin(), realtimeHandler.Stream)

	r.NoRoute(middleware.NotFoundHandler)
	r.NoMethod(middleware.MethodNotAllowedHandler)

	return r, nil
}

func metricsPath(cfg *app.Config) string {
	endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
	if endpoint == "" {
		return "/metrics"
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return endpoint
}
