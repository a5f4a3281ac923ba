package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/internal/realtime"
)

func TestLedgerScanRejectsEmptyToken(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.ledger.Scan(context.Background(), ScanInput{Token: "   "})
	require.ErrorIs(t, err, ErrEmptyCredential)
}

func TestLedgerScanUnknownToken(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.ledger.Scan(context.Background(), ScanInput{Token: "nope"})
	require.ErrorIs(t, err, ErrCredentialNotFound)
	require.Equal(t, "Davetli değil.", ErrCredentialNotFound.Message)
}

func TestLedgerScanTogglesEntryAndExit(t *testing.T) {
	ts := newTestServices(t)
	visitor := ts.createVisitor(t, "ada")
	ctx := context.Background()

	entry, err := ts.ledger.Scan(ctx, ScanInput{Token: visitor.CredentialToken, UserAgent: "scanner/1.0"})
	require.NoError(t, err)
	require.True(t, entry.Success)
	require.True(t, entry.Entered)
	require.Equal(t, MessageEntered, entry.Message)
	require.NotNil(t, entry.LogID)
	require.NotNil(t, entry.EntryTime)
	require.Nil(t, entry.ExitTime)
	require.Equal(t, visitor.ID, entry.Visitor.ID)

	var row models.VisitorLog
	require.NoError(t, ts.db.Take(&row, *entry.LogID).Error)
	require.Equal(t, models.LogSourceMobile, row.Source)
	require.Equal(t, "scanner/1.0", row.Metadata)
	require.True(t, row.IsOpen())
	require.NotNil(t, row.OpenVisitorID)

	exit, err := ts.ledger.Scan(ctx, ScanInput{Token: " " + visitor.CredentialToken + " "})
	require.NoError(t, err)
	require.False(t, exit.Entered)
	require.Equal(t, MessageExited, exit.Message)
	require.Equal(t, *entry.LogID, *exit.LogID)
	require.NotNil(t, exit.ExitTime)

	require.NoError(t, ts.db.Take(&row, *entry.LogID).Error)
	require.False(t, row.IsOpen())
	require.Nil(t, row.OpenVisitorID)

	again, err := ts.ledger.Scan(ctx, ScanInput{Token: visitor.CredentialToken})
	require.NoError(t, err)
	require.True(t, again.Entered)
	require.NotEqual(t, *entry.LogID, *again.LogID)

	notifications := ts.publisher.events(realtime.StreamNotifications)
	require.Contains(t, notifications, realtime.EventEntryCreated)
	require.Contains(t, notifications, realtime.EventExitUpdate)
	require.NotEmpty(t, ts.publisher.events(realtime.StreamStatistics))
}

func TestLedgerScanConcurrentKeepsSingleOpenRow(t *testing.T) {
	ts := newTestServices(t)
	visitor := ts.createVisitor(t, "grace")

	const scans = 10
	var wg sync.WaitGroup
	errs := make(chan error, scans)
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ts.ledger.Scan(context.Background(), ScanInput{Token: visitor.CredentialToken})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, int64(0), openRows(t, ts.db, visitor.ID))

	var total int64
	require.NoError(t, ts.db.Model(&models.VisitorLog{}).Where("visitor_id = ?", visitor.ID).Count(&total).Error)
	require.Equal(t, int64(scans/2), total)
	require.Equal(t, 0, ts.ledger.locks.size())
}

func TestLedgerOpenRowUniqueIndex(t *testing.T) {
	ts := newTestServices(t)
	visitor := ts.createVisitor(t, "linus")

	id := visitor.ID
	now := time.Now().UTC()
	require.NoError(t, ts.db.Create(&models.VisitorLog{VisitorID: id, EntryTime: now, OpenVisitorID: &id}).Error)

	err := ts.db.Create(&models.VisitorLog{VisitorID: id, EntryTime: now, OpenVisitorID: &id}).Error
	require.Error(t, err)
	require.True(t, isUniqueConstraintError(err))
}

func TestLedgerManualExit(t *testing.T) {
	ts := newTestServices(t)
	visitor := ts.createVisitor(t, "ada")
	ctx := context.Background()

	entry, err := ts.ledger.Scan(ctx, ScanInput{Token: visitor.CredentialToken})
	require.NoError(t, err)

	row, err := ts.ledger.ManualExit(ctx, *entry.LogID, Actor{UserID: 1, Username: "admin"})
	require.NoError(t, err)
	require.NotNil(t, row.ExitTime)
	require.Equal(t, int64(0), openRows(t, ts.db, visitor.ID))

	_, err = ts.ledger.ManualExit(ctx, *entry.LogID, Actor{})
	require.ErrorIs(t, err, ErrLogAlreadyExited)

	_, err = ts.ledger.ManualExit(ctx, 9999, Actor{})
	require.ErrorIs(t, err, ErrLogNotFound)

	logs, _, err := ts.audit.List(ctx, AuditFilters{Action: ActionLogExit}, Page{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
}

func TestLedgerListFilters(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	ada := ts.createVisitor(t, "Ada Lovelace")
	grace := ts.createVisitor(t, "Grace Hopper")
	require.NoError(t, ts.db.Model(grace).Update("phone_number", "555-0199").Error)

	_, err := ts.ledger.Scan(ctx, ScanInput{Token: ada.CredentialToken})
	require.NoError(t, err)
	_, err = ts.ledger.Scan(ctx, ScanInput{Token: ada.CredentialToken})
	require.NoError(t, err)
	_, err = ts.ledger.Scan(ctx, ScanInput{Token: grace.CredentialToken})
	require.NoError(t, err)

	rows, total, err := ts.ledger.List(ctx, LogFilter{}, Page{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, rows, 2)

	rows, total, err = ts.ledger.List(ctx, LogFilter{VisitorName: "ada"}, Page{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Ada Lovelace", rows[0].VisitorName)
	require.NotNil(t, rows[0].ExitTime)

	rows, total, err = ts.ledger.List(ctx, LogFilter{OnlyNotExited: true}, Page{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, grace.ID, rows[0].VisitorID)
	require.Nil(t, rows[0].ExitTime)

	rows, _, err = ts.ledger.List(ctx, LogFilter{PhoneNumber: "0199"}, Page{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "555-0199", rows[0].PhoneNumber)

	future := time.Now().Add(time.Hour)
	_, total, err = ts.ledger.List(ctx, LogFilter{Range: DateRange{Start: &future}}, Page{})
	require.NoError(t, err)
	require.Equal(t, int64(0), total)

	rows, total, err = ts.ledger.List(ctx, LogFilter{}, Page{Number: 2, Size: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, rows, 1)
}

func TestLedgerForVisitorAndReport(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	visitor := ts.createVisitor(t, "ada")

	_, err := ts.ledger.ForVisitor(ctx, 0, DateRange{})
	require.ErrorIs(t, err, ErrVisitorIDRequired)

	_, err = ts.ledger.ForVisitor(ctx, visitor.ID, DateRange{})
	require.ErrorIs(t, err, ErrVisitorHasNoLogs)

	_, err = ts.ledger.Report(ctx, 0, DateRange{})
	require.ErrorIs(t, err, ErrReportEmpty)

	_, err = ts.ledger.Scan(ctx, ScanInput{Token: visitor.CredentialToken})
	require.NoError(t, err)

	rows, err := ts.ledger.ForVisitor(ctx, visitor.ID, DateRange{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = ts.ledger.Report(ctx, 0, DateRange{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	require.Equal(t, 2, k.size())
	unlockA()
	unlockB()
	require.Equal(t, 0, k.size())
}
