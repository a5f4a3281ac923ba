package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/pkg/logger"
	"github.com/mellystark/visitormanagement/pkg/metrics"
)

// StatsSnapshot is the aggregate pushed on the statistics stream.
type StatsSnapshot struct {
	TotalVisitors int64     `json:"totalVisitors"`
	DailyEntries  int64     `json:"dailyEntries"`
	DailyExits    int64     `json:"dailyExits"`
	Inside        int64     `json:"inside"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// StatsOption customises a StatsService.
type StatsOption func(*StatsService)

// WithStatsLocation sets the time zone that defines "today".
func WithStatsLocation(loc *time.Location) StatsOption {
	return func(s *StatsService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithStatsClock overrides the clock, mainly for tests.
func WithStatsClock(now func() time.Time) StatsOption {
	return func(s *StatsService) {
		if now != nil {
			s.now = now
		}
	}
}

// StatsService computes visitor statistics from the registry and ledger.
type StatsService struct {
	db       *gorm.DB
	notifier *Notifier
	loc      *time.Location
	now      func() time.Time
}

// NewStatsService constructs a StatsService.
func NewStatsService(db *gorm.DB, notifier *Notifier, opts ...StatsOption) (*StatsService, error) {
	if db == nil {
		return nil, errors.New("stats service: db is required")
	}
	svc := &StatsService{db: db, notifier: notifier, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Snapshot recomputes every counter from the database.
func (s *StatsService) Snapshot(ctx context.Context) (StatsSnapshot, error) {
	ctx = ensureContext(ctx)

	now := s.now()
	since := startOfDay(now, s.loc)
	db := s.db.WithContext(ctx)

	var snapshot StatsSnapshot
	if err := db.Model(&models.Visitor{}).Count(&snapshot.TotalVisitors).Error; err != nil {
		return StatsSnapshot{}, fmt.Errorf("stats service: count visitors: %w", err)
	}
	if err := db.Model(&models.VisitorLog{}).
		Where("entry_time >= ?", since).
		Count(&snapshot.DailyEntries).Error; err != nil {
		return StatsSnapshot{}, fmt.Errorf("stats service: count entries: %w", err)
	}
	if err := db.Model(&models.VisitorLog{}).
		Where("exit_time IS NOT NULL AND exit_time >= ?", since).
		Count(&snapshot.DailyExits).Error; err != nil {
		return StatsSnapshot{}, fmt.Errorf("stats service: count exits: %w", err)
	}
	if err := db.Model(&models.VisitorLog{}).
		Where("exit_time IS NULL").
		Count(&snapshot.Inside).Error; err != nil {
		return StatsSnapshot{}, fmt.Errorf("stats service: count inside: %w", err)
	}

	snapshot.GeneratedAt = now.UTC()
	metrics.VisitorsInside.Set(float64(snapshot.Inside))
	return snapshot, nil
}

// Broadcast computes a snapshot and publishes it on the statistics stream.
func (s *StatsService) Broadcast(ctx context.Context) (StatsSnapshot, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return StatsSnapshot{}, err
	}
	s.notifier.PublishStats(ctx, snapshot)
	return snapshot, nil
}

// broadcastQuietly is called after mutations; errors are logged only.
func (s *StatsService) broadcastQuietly(ctx context.Context) {
	if s == nil {
		return
	}
	if _, err := s.Broadcast(ctx); err != nil {
		logger.WithModule("stats").Warn("statistics broadcast failed", zap.Error(err))
	}
}
