package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mellystark/visitormanagement/internal/database/testutil"
	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/internal/realtime"
)

func TestStatsSnapshotCountsToday(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	publisher := &recordingPublisher{}
	svc, err := NewStatsService(db, NewNotifier(publisher), WithStatsClock(func() time.Time { return now }))
	require.NoError(t, err)

	a := models.Visitor{FullName: "A"}
	b := models.Visitor{FullName: "B"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)

	yesterday := now.Add(-24 * time.Hour)
	earlier := now.Add(-2 * time.Hour)
	exitToday := now.Add(-time.Hour)
	aID := a.ID

	logs := []models.VisitorLog{
		{VisitorID: a.ID, EntryTime: yesterday, ExitTime: &exitToday},
		{VisitorID: b.ID, EntryTime: earlier, ExitTime: &exitToday},
		{VisitorID: a.ID, EntryTime: now, OpenVisitorID: &aID},
	}
	require.NoError(t, db.Create(&logs).Error)

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), snapshot.TotalVisitors)
	require.Equal(t, int64(2), snapshot.DailyEntries)
	require.Equal(t, int64(2), snapshot.DailyExits)
	require.Equal(t, int64(1), snapshot.Inside)
	require.Equal(t, now, snapshot.GeneratedAt)

	_, err = svc.Broadcast(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{realtime.EventStatsUpdated}, publisher.events(realtime.StreamStatistics))
}

func TestStatsSnapshotHonoursLocation(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 01:00 local on March 11 is 22:00 UTC on March 10.
	now := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)
	svc, err := NewStatsService(db, nil, WithStatsLocation(loc), WithStatsClock(func() time.Time { return now }))
	require.NoError(t, err)

	v := models.Visitor{FullName: "A"}
	require.NoError(t, db.Create(&v).Error)
	require.NoError(t, db.Create(&models.VisitorLog{VisitorID: v.ID, EntryTime: now.Add(-3 * time.Hour)}).Error)
	require.NoError(t, db.Create(&models.VisitorLog{VisitorID: v.ID, EntryTime: now.Add(-30 * time.Minute)}).Error)

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), snapshot.DailyEntries)
}

func TestStatsBroadcastWithoutNotifier(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewStatsService(db, nil)
	require.NoError(t, err)

	snapshot, err := svc.Broadcast(context.Background())
	require.NoError(t, err)
	require.Zero(t, snapshot.TotalVisitors)
}
