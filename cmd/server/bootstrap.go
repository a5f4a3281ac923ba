package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mellystark/visitormanagement/internal/api"
	"github.com/mellystark/visitormanagement/internal/app"
	"github.com/mellystark/visitormanagement/internal/app/maintenance"
	iauth "github.com/mellystark/visitormanagement/internal/auth"
	"github.com/mellystark/visitormanagement/internal/cache"
	"github.com/mellystark/visitormanagement/internal/database"
	"github.com/mellystark/visitormanagement/internal/middleware"
	"github.com/mellystark/visitormanagement/internal/monitoring"
	"github.com/mellystark/visitormanagement/internal/monitoring/checks"
	"github.com/mellystark/visitormanagement/internal/realtime"
	"github.com/mellystark/visitormanagement/pkg/logger"
	"github.com/mellystark/visitormanagement/pkg/mail"
	"github.com/mellystark/visitormanagement/pkg/qrcode"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB       *gorm.DB
	Redis    redis.UniversalClient
	Hub      *realtime.Hub
	Bridge   *realtime.RedisBridge
	Services *api.Services
	Cleaner  *maintenance.Cleaner
	Router   *gin.Engine
}

// bootstrapRuntime initialises the database, optional Redis, services,
// background jobs and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisClient(ctx, cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to in-process rate limiting and fan-out", zap.Error(err))
			stack.Redis = nil
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	stack.Hub = realtime.NewHub(
		realtime.WithAllowedOrigins(cfg.Server.CORS.AllowedOrigins),
		realtime.WithBufferSize(cfg.Realtime.BufferSize),
	)
	var publisher realtime.Publisher = stack.Hub
	if stack.Redis != nil {
		stack.Bridge = realtime.NewRedisBridge(stack.Redis, stack.Hub, cfg.Realtime.RedisChannel)
		if err := stack.Bridge.Start(ctx); err != nil {
			return nil, fmt.Errorf("start realtime bridge: %w", err)
		}
		publisher = stack.Bridge
	}

	location, err := cfg.Stats.Location()
	if err != nil {
		return nil, err
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}

	stack.Services, err = api.NewServices(stack.DB, publisher, api.ServiceOptions{
		Location: location,
		QRSize:   qrcode.DefaultSize,
		Mailer:   mailer,
		MailFrom: cfg.Email.SMTP.From,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise services: %w", err)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	stack.Cleaner = maintenance.NewCleaner(stack.Services.Audit, stack.Services.Stats,
		maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
		maintenance.WithStatsSchedule(cfg.Stats.BroadcastCron),
	)
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	var rateStore middleware.RateStore
	if stack.Redis != nil {
		rateStore = middleware.NewRedisRateStore(stack.Redis)
	}

	probeTimeout := cfg.Monitoring.Health.ProbeTimeout
	health := monitoring.NewHealthManager(
		checks.Database(stack.DB, probeTimeout),
		checks.Redis(stack.Redis, cfg.Cache.Redis.Enabled, probeTimeout),
	)

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:    cfg,
		DB:        stack.DB,
		JWT:       jwtSvc,
		Services:  stack.Services,
		Hub:       stack.Hub,
		RateStore: rateStore,
		Health:    health,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			ctx = stopCtx
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.Bridge != nil {
		if err := s.Bridge.Close(); err != nil {
			log.Warn("realtime bridge shutdown", zap.Error(err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db, cfg.Auth.AdminSeed()); err != nil {
		closeDatabase(db, logger.WithModule("database"))
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
