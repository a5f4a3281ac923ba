package checks

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mellystark/visitormanagement/internal/monitoring"
)

const defaultRedisTimeout = 2 * time.Second

// Redis returns a readiness probe for the shared Redis instance. When Redis
// is disabled the probe reports up; when it is enabled but the client could
// not be built the service runs process-local and the probe reports degraded.
func Redis(client redis.UniversalClient, enabled bool, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("redis", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if !enabled {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "redis disabled"}
		}
		if client == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "redis unavailable"}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultRedisTimeout))
		defer cancel()

		return monitoring.ResultFromError("redis", client.Ping(probeCtx).Err(), time.Since(start))
	})
}
