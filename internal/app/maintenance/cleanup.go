package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mellystark/visitormanagement/internal/services"
	"github.com/mellystark/visitormanagement/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultAuditSpec          = "@daily"
	jobTimeout                = time.Minute
)

// AuditPruner removes audit rows past the retention window.
type AuditPruner interface {
	CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error)
}

// StatsBroadcaster recomputes and pushes the statistics snapshot.
type StatsBroadcaster interface {
	Broadcast(ctx context.Context) (services.StatsSnapshot, error)
}

// Cleaner coordinates background jobs: audit retention and the optional
// periodic statistics push.
type Cleaner struct {
	audit     AuditPruner
	stats     StatsBroadcaster
	cron      *cron.Cron
	log       *zap.Logger
	retention int

	auditSchedule string
	statsSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// WithStatsSchedule enables the periodic statistics push on the given spec.
func WithStatsSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		cleaner.statsSchedule = spec
	}
}

// NewCleaner constructs a Cleaner. A nil dependency skips its job.
func NewCleaner(audit AuditPruner, stats StatsBroadcaster, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		audit:         audit,
		stats:         stats,
		retention:     defaultAuditRetentionDays,
		auditSchedule: defaultAuditSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers jobs with the cron scheduler and launches it if at least one job is enabled.
func (c *Cleaner) Start() error {
	scheduled := false

	if c.audit != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.auditSchedule, c.runAudit); err != nil {
			return err
		}
		scheduled = true
	}

	if c.stats != nil && c.statsSchedule != "" {
		if _, err := c.cron.AddFunc(c.statsSchedule, c.runStats); err != nil {
			return err
		}
		scheduled = true
	}

	if scheduled {
		c.cron.Start()
	}
	return nil
}

// Stop halts the underlying scheduler. The returned context is done once running jobs complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes the retention cleanup. The statistics push is periodic
// only and is not part of RunOnce.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.audit != nil && c.retention > 0 {
		if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

func (c *Cleaner) runAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	removed, err := c.audit.CleanupOlderThan(ctx, c.retention)
	if err != nil {
		c.log.Warn("audit cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		c.log.Info("audit logs pruned", zap.Int64("removed", removed), zap.Int("retention_days", c.retention))
	}
}

func (c *Cleaner) runStats() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := c.stats.Broadcast(ctx); err != nil {
		c.log.Warn("scheduled stats broadcast failed", zap.Error(err))
	}
}
