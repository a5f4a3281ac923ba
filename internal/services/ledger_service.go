package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/internal/realtime"
	"github.com/mellystark/visitormanagement/pkg/logger"
	"github.com/mellystark/visitormanagement/pkg/metrics"
)

// Scan and ledger messages returned to clients.
const (
	MessageEntered       = "Giriş Yapıldı."
	MessageExited        = "Çıkış Yapıldı."
	MessageEntryCreated  = "Yeni giriş yapıldı"
	MessageManualExitSet = "Çıkış zamanı başarıyla eklendi."

	maxMetadataLength = 512
)

// errOpenRowClosed signals that another writer closed the open row between
// our read and update.
var errOpenRowClosed = errors.New("ledger: open row closed concurrently")

// ScanInput is a scanned credential plus request context.
type ScanInput struct {
	Token     string
	UserAgent string
}

// ScanResult is the outcome of a ledger toggle.
type ScanResult struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Visitor   *models.Visitor `json:"visitor,omitempty"`
	LogID     *uint           `json:"logId,omitempty"`
	EntryTime *time.Time      `json:"entryTime,omitempty"`
	ExitTime  *time.Time      `json:"exitTime,omitempty"`

	// Entered is true when the scan opened a new row.
	Entered bool `json:"-"`
}

// DateRange bounds a query on entry time. Nil ends are open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// LogFilter selects ledger rows for listings and exports.
type LogFilter struct {
	Range         DateRange
	VisitorID     uint
	VisitorName   string
	PhoneNumber   string
	OnlyNotExited bool
}

// LogRow is a ledger row joined with its visitor.
type LogRow struct {
	ID          uint       `json:"id"`
	VisitorID   uint       `json:"visitorId"`
	VisitorName string     `json:"visitorName"`
	PhoneNumber string     `json:"phoneNumber"`
	EntryTime   time.Time  `json:"entryTime"`
	ExitTime    *time.Time `json:"exitTime"`
	Source      string     `json:"source,omitempty"`
}

// LedgerService records visitor presence and serves ledger queries.
type LedgerService struct {
	db       *gorm.DB
	notifier *Notifier
	stats    *StatsService
	audit    *AuditService
	locks    *keyedMutex
	now      func() time.Time
	log      *zap.Logger
}

// NewLedgerService constructs a LedgerService. notifier, stats and audit may be nil.
func NewLedgerService(db *gorm.DB, notifier *Notifier, stats *StatsService, audit *AuditService) (*LedgerService, error) {
	if db == nil {
		return nil, errors.New("ledger service: db is required")
	}
	return &LedgerService{
		db:       db,
		notifier: notifier,
		stats:    stats,
		audit:    audit,
		locks:    newKeyedMutex(),
		now:      time.Now,
		log:      logger.WithModule("ledger"),
	}, nil
}

// Scan toggles the presence of the visitor holding token: it opens a row
// when none is open and closes the open row otherwise.
func (s *LedgerService) Scan(ctx context.Context, input ScanInput) (*ScanResult, error) {
	ctx = ensureContext(ctx)

	token := strings.TrimSpace(input.Token)
	if token == "" {
		metrics.ScanEvents.WithLabelValues("invalid").Inc()
		return nil, ErrEmptyCredential
	}

	unlock := s.locks.Lock(token)
	result, err := s.toggle(ctx, token, input.UserAgent)
	if err != nil && (isUniqueConstraintError(err) || errors.Is(err, errOpenRowClosed)) {
		// Another instance won the race; the retry observes its committed row.
		s.log.Debug("retrying scan after concurrent ledger write", zap.Error(err))
		result, err = s.toggle(ctx, token, input.UserAgent)
	}
	unlock()

	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			metrics.ScanEvents.WithLabelValues("not_found").Inc()
			return nil, err
		}
		metrics.ScanEvents.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ledger service: scan: %w", err)
	}

	payload := NotificationPayload{
		LogID:     result.LogID,
		VisitorID: &result.Visitor.ID,
	}
	if result.Entered {
		metrics.ScanEvents.WithLabelValues("entry").Inc()
		payload.Type = realtime.EventEntryCreated
		payload.Message = MessageEntryCreated
	} else {
		metrics.ScanEvents.WithLabelValues("exit").Inc()
		payload.Type = realtime.EventExitUpdate
		payload.Message = exitMessage(result.Visitor.FullName)
		payload.ExitTime = result.ExitTime
	}
	s.notifier.Notify(ctx, payload)
	s.stats.broadcastQuietly(ctx)

	return result, nil
}

func (s *LedgerService) toggle(ctx context.Context, token, userAgent string) (*ScanResult, error) {
	var result *ScanResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var visitor models.Visitor
		if err := tx.Where("credential_token = ?", token).Take(&visitor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCredentialNotFound
			}
			return fmt.Errorf("load visitor: %w", err)
		}

		var open []models.VisitorLog
		if err := tx.Where("visitor_id = ? AND exit_time IS NULL", visitor.ID).
			Order("entry_time DESC").
			Limit(1).
			Find(&open).Error; err != nil {
			return fmt.Errorf("load open row: %w", err)
		}

		now := s.now().UTC()

		if len(open) == 0 {
			openID := visitor.ID
			entry := models.VisitorLog{
				VisitorID:     visitor.ID,
				EntryTime:     now,
				OpenVisitorID: &openID,
				Source:        models.LogSourceMobile,
				Metadata:      truncate(strings.TrimSpace(userAgent), maxMetadataLength),
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			result = &ScanResult{
				Success:   true,
				Message:   MessageEntered,
				Visitor:   &visitor,
				LogID:     &entry.ID,
				EntryTime: &entry.EntryTime,
				Entered:   true,
			}
			return nil
		}

		row := open[0]
		if err := closeRow(tx, &row, now); err != nil {
			return err
		}
		result = &ScanResult{
			Success:   true,
			Message:   MessageExited,
			Visitor:   &visitor,
			LogID:     &row.ID,
			EntryTime: &row.EntryTime,
			ExitTime:  row.ExitTime,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// closeRow sets the exit time on an open row. It fails with errOpenRowClosed
// when the row was closed by someone else first.
func closeRow(tx *gorm.DB, row *models.VisitorLog, at time.Time) error {
	res := tx.Model(&models.VisitorLog{}).
		Where("id = ? AND exit_time IS NULL", row.ID).
		Updates(map[string]any{"exit_time": at, "open_visitor_id": nil})
	if res.Error != nil {
		return fmt.Errorf("close row: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errOpenRowClosed
	}
	row.Close(at)
	return nil
}

func exitMessage(fullName string) string {
	return fullName + " adlı ziyaretçi çıkış yaptı."
}

// ManualExit closes the given row on behalf of an administrator.
func (s *LedgerService) ManualExit(ctx context.Context, logID uint, actor Actor) (*models.VisitorLog, error) {
	ctx = ensureContext(ctx)

	var row models.VisitorLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Visitor").Take(&row, logID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLogNotFound
			}
			return fmt.Errorf("load row: %w", err)
		}
		if !row.IsOpen() {
			return ErrLogAlreadyExited
		}
		if err := closeRow(tx, &row, s.now().UTC()); err != nil {
			if errors.Is(err, errOpenRowClosed) {
				return ErrLogAlreadyExited
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLogNotFound) || errors.Is(err, ErrLogAlreadyExited) {
			return nil, err
		}
		return nil, fmt.Errorf("ledger service: manual exit: %w", err)
	}

	s.audit.Record(ctx, actor.entry(ActionLogExit, "visitor_log", idString(row.ID), AuditResultSuccess, map[string]any{
		"visitor_id": row.VisitorID,
	}))

	name := ""
	if row.Visitor != nil {
		name = row.Visitor.FullName
	}
	s.notifier.Notify(ctx, NotificationPayload{
		Type:      realtime.EventExitUpdate,
		Message:   exitMessage(name),
		LogID:     &row.ID,
		VisitorID: &row.VisitorID,
		ExitTime:  row.ExitTime,
	})
	s.stats.broadcastQuietly(ctx)

	return &row, nil
}

// List returns a page of ledger rows, newest entry first.
func (s *LedgerService) List(ctx context.Context, filter LogFilter, page Page) ([]LogRow, int64, error) {
	ctx = ensureContext(ctx)
	page = page.Normalise()

	var total int64
	if err := s.filteredRows(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("ledger service: count rows: %w", err)
	}

	rows := make([]LogRow, 0, page.Size)
	if err := s.filteredRows(ctx, filter).
		Select(logRowColumns).
		Order("visitor_logs.entry_time DESC").
		Order("visitor_logs.id DESC").
		Offset(page.offset()).
		Limit(page.Size).
		Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("ledger service: list rows: %w", err)
	}
	return rows, total, nil
}

// All returns every ledger row matching filter, newest entry first.
func (s *LedgerService) All(ctx context.Context, filter LogFilter) ([]LogRow, error) {
	ctx = ensureContext(ctx)

	rows := make([]LogRow, 0)
	if err := s.filteredRows(ctx, filter).
		Select(logRowColumns).
		Order("visitor_logs.entry_time DESC").
		Order("visitor_logs.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("ledger service: list rows: %w", err)
	}
	return rows, nil
}

// ForVisitor returns the rows of one visitor. It fails when the visitor has none.
func (s *LedgerService) ForVisitor(ctx context.Context, visitorID uint, dates DateRange) ([]LogRow, error) {
	if visitorID == 0 {
		return nil, ErrVisitorIDRequired
	}
	rows, err := s.All(ctx, LogFilter{VisitorID: visitorID, Range: dates})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrVisitorHasNoLogs
	}
	return rows, nil
}

// Report returns rows for an optional visitor and date range. It fails when nothing matches.
func (s *LedgerService) Report(ctx context.Context, visitorID uint, dates DateRange) ([]LogRow, error) {
	rows, err := s.All(ctx, LogFilter{VisitorID: visitorID, Range: dates})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrReportEmpty
	}
	return rows, nil
}

const logRowColumns = "visitor_logs.id, visitor_logs.visitor_id, visitors.full_name AS visitor_name, " +
	"visitors.phone_number, visitor_logs.entry_time, visitor_logs.exit_time, visitor_logs.source"

func (s *LedgerService) filteredRows(ctx context.Context, filter LogFilter) *gorm.DB {
	query := s.db.WithContext(ctx).
		Table("visitor_logs").
		Joins("JOIN visitors ON visitors.id = visitor_logs.visitor_id")

	if filter.VisitorID != 0 {
		query = query.Where("visitor_logs.visitor_id = ?", filter.VisitorID)
	}
	if filter.Range.Start != nil {
		query = query.Where("visitor_logs.entry_time >= ?", filter.Range.Start.UTC())
	}
	if filter.Range.End != nil {
		query = query.Where("visitor_logs.entry_time <= ?", filter.Range.End.UTC())
	}
	if strings.TrimSpace(filter.VisitorName) != "" {
		query = query.Where("LOWER(visitors.full_name) LIKE ?", containsPattern(filter.VisitorName))
	}
	if strings.TrimSpace(filter.PhoneNumber) != "" {
		query = query.Where("LOWER(visitors.phone_number) LIKE ?", containsPattern(filter.PhoneNumber))
	}
	if filter.OnlyNotExited {
		query = query.Where("visitor_logs.exit_time IS NULL")
	}
	return query
}
