package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mellystark/visitormanagement/internal/database/testutil"
	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/internal/realtime"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []realtime.Message
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, message realtime.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
	return p.err
}

func (p *recordingPublisher) events(stream string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.messages {
		if m.Stream == stream {
			out = append(out, m.Event)
		}
	}
	return out
}

type testServices struct {
	db          *gorm.DB
	publisher   *recordingPublisher
	audit       *AuditService
	stats       *StatsService
	ledger      *LedgerService
	visitors    *VisitorService
	invitations *InvitationService
	admins      *AdminService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	publisher := &recordingPublisher{}
	notifier := NewNotifier(publisher)

	audit, err := NewAuditService(db)
	require.NoError(t, err)
	stats, err := NewStatsService(db, notifier)
	require.NoError(t, err)
	ledger, err := NewLedgerService(db, notifier, stats, audit)
	require.NoError(t, err)
	visitors, err := NewVisitorService(db, notifier, stats, audit)
	require.NoError(t, err)
	invitations, err := NewInvitationService(db, notifier, stats, audit)
	require.NoError(t, err)
	admins, err := NewAdminService(db, audit)
	require.NoError(t, err)

	return &testServices{
		db:          db,
		publisher:   publisher,
		audit:       audit,
		stats:       stats,
		ledger:      ledger,
		visitors:    visitors,
		invitations: invitations,
		admins:      admins,
	}
}

func (ts *testServices) createVisitor(t *testing.T, name string) *models.Visitor {
	t.Helper()
	visitor, err := ts.visitors.Create(context.Background(), VisitorInput{
		FullName:    name,
		Email:       name + "@example.com",
		PhoneNumber: "555-0100",
	}, Actor{})
	require.NoError(t, err)
	return visitor
}

func (ts *testServices) createInvitation(t *testing.T, slug string) *models.Invitation {
	t.Helper()
	invitation, err := ts.invitations.Create(context.Background(), InvitationInput{
		Name:      "Meetup",
		EventDate: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
		Slug:      slug,
	}, Actor{})
	require.NoError(t, err)
	return invitation
}

func openRows(t *testing.T, db *gorm.DB, visitorID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.VisitorLog{}).
		Where("visitor_id = ? AND exit_time IS NULL", visitorID).
		Count(&count).Error)
	return count
}
