package checks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/internal/monitoring"
)

const defaultDatabaseTimeout = 2 * time.Second

// Database pings the connection pool and confirms the ledger tables exist.
// A reachable database without the schema reports degraded, since scans
// would fail until migrations run.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}

		sqlDB, err := db.DB()
		if err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultDatabaseTimeout))
		defer cancel()
		if err := sqlDB.PingContext(probeCtx); err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}

		migrator := db.WithContext(probeCtx).Migrator()
		if !migrator.HasTable(&models.Visitor{}) || !migrator.HasTable(&models.VisitorLog{}) {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  "visitor schema not migrated",
				Duration: time.Since(start),
			}
		}
		return monitoring.ResultFromError("database", nil, time.Since(start))
	})
}

func chooseTimeout(provided, fallback time.Duration) time.Duration {
	if provided <= 0 {
		return fallback
	}
	return provided
}
