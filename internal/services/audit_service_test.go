package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mellystark/visitormanagement/internal/database/testutil"
	"github.com/mellystark/visitormanagement/internal/models"
)

func newAuditService(t *testing.T) *AuditService {
	t.Helper()
	svc, err := NewAuditService(testutil.MustOpenTestDB(t, testutil.WithAutoMigrate()))
	require.NoError(t, err)
	return svc
}

func TestAuditServiceLogAndList(t *testing.T) {
	svc := newAuditService(t)
	ctx := context.Background()

	desk := Actor{UserID: 7, Username: "admin", IPAddress: "10.0.0.4", UserAgent: "kiosk/1.0"}
	require.NoError(t, svc.Log(ctx, desk.entry(ActionVisitorCreate, "visitor", "1", AuditResultSuccess, map[string]any{"full_name": "Ada"})))
	require.NoError(t, svc.Log(ctx, Actor{}.entry(ActionLogin, "user", "", AuditResultFailure, nil)))

	all, total, err := svc.List(ctx, AuditFilters{}, Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, all, 2)

	created, total, err := svc.List(ctx, AuditFilters{Action: ActionVisitorCreate, Resource: "visitor"}, Page{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "1", created[0].ResourceID)
	require.Equal(t, "10.0.0.4", created[0].IPAddress)
	require.NotNil(t, created[0].UserID)
	require.Equal(t, uint(7), *created[0].UserID)

	var metadata map[string]any
	require.NoError(t, json.Unmarshal(created[0].Metadata, &metadata))
	require.Equal(t, "Ada", metadata["full_name"])

	userID := uint(7)
	byUser, total, err := svc.List(ctx, AuditFilters{UserID: &userID}, Page{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, byUser, 1)

	failures, _, err := svc.List(ctx, AuditFilters{Result: AuditResultFailure}, Page{})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	require.Nil(t, failures[0].UserID)
}

func TestAuditServiceListPagesNewestFirst(t *testing.T) {
	svc := newAuditService(t)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, svc.Log(ctx, Actor{UserID: 1}.entry(ActionVisitorDelete, "visitor", id, AuditResultSuccess, nil)))
	}

	first, total, err := svc.List(ctx, AuditFilters{}, Page{Number: 1, Size: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Equal(t, []string{"3", "2"}, []string{first[0].ResourceID, first[1].ResourceID})

	second, _, err := svc.List(ctx, AuditFilters{}, Page{Number: 2, Size: 2})
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, "1", second[0].ResourceID)
}

func TestAuditServiceRequiresActionAndResult(t *testing.T) {
	svc := newAuditService(t)

	require.ErrorContains(t, svc.Log(context.Background(), AuditEntry{Result: AuditResultSuccess}), "action is required")
	require.ErrorContains(t, svc.Log(context.Background(), AuditEntry{Action: ActionLogExit, Result: "  "}), "result is required")
}

func TestAuditServiceRecordToleratesFailures(t *testing.T) {
	var missing *AuditService
	require.NotPanics(t, func() {
		missing.Record(context.Background(), Actor{}.entry(ActionLogExit, "visitor_log", "1", AuditResultSuccess, nil))
	})

	svc := newAuditService(t)
	require.NotPanics(t, func() { svc.Record(context.Background(), AuditEntry{}) })

	_, total, err := svc.List(context.Background(), AuditFilters{}, Page{})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestAuditServiceCleanupOlderThan(t *testing.T) {
	svc := newAuditService(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	stale := models.AuditLog{Action: ActionLogin, Result: AuditResultSuccess, CreatedAt: now.AddDate(0, 0, -10)}
	require.NoError(t, svc.db.Create(&stale).Error)
	fresh := models.AuditLog{Action: ActionLogin, Result: AuditResultSuccess, CreatedAt: now.AddDate(0, 0, -1)}
	require.NoError(t, svc.db.Create(&fresh).Error)

	removed, err := svc.CleanupOlderThan(context.Background(), 5)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, err = svc.CleanupOlderThan(context.Background(), 0)
	require.Error(t, err)
}
