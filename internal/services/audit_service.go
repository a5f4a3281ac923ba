package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/pkg/logger"
)

const (
	AuditResultSuccess = "success"
	AuditResultFailure = "failure"
)

// Audited actions.
const (
	ActionLogin            = "auth.login"
	ActionChangePassword   = "user.change_password"
	ActionUpdateProfile    = "user.update_profile"
	ActionVisitorCreate    = "visitor.create"
	ActionVisitorUpdate    = "visitor.update"
	ActionVisitorDelete    = "visitor.delete"
	ActionLogExit          = "log.exit"
	ActionInvitationCreate = "invitation.create"
	ActionInvitationUpdate = "invitation.update"
	ActionInvitationDelete = "invitation.delete"
	ActionRemoveVisitor    = "invitation.remove_visitor"
	ActionRequestApprove   = "invite_request.approve"
	ActionRequestReject    = "invite_request.reject"
)

// Actor identifies the administrator performing an operation.
type Actor struct {
	UserID    uint
	Username  string
	IPAddress string
	UserAgent string
}

// userID is nil for anonymous actors such as failed logins.
func (a Actor) userID() *uint {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}

func (a Actor) entry(action, resource, resourceID, result string, metadata map[string]any) AuditEntry {
	return AuditEntry{
		UserID:     a.userID(),
		Username:   a.Username,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Result:     result,
		IPAddress:  a.IPAddress,
		UserAgent:  a.UserAgent,
		Metadata:   metadata,
	}
}

type AuditEntry struct {
	UserID     *uint
	Username   string
	Action     string
	Resource   string
	ResourceID string
	Result     string
	IPAddress  string
	UserAgent  string
	Metadata   map[string]any
}

// AuditFilters narrows List. Zero fields do not filter.
type AuditFilters struct {
	UserID   *uint
	Action   string
	Result   string
	Resource string
	Since    *time.Time
	Until    *time.Time
}

// AuditService writes and queries the admin audit trail.
type AuditService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db, now: time.Now}, nil
}

// Log stores entry and reports failures to the caller.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	return s.insert(s.db.WithContext(ensureContext(ctx)), entry)
}

// LogTx stores entry inside tx so it commits or rolls back with the change
// it describes.
func (s *AuditService) LogTx(tx *gorm.DB, entry AuditEntry) error {
	return s.insert(tx, entry)
}

// Record stores entry after the fact. A failed audit write is logged and
// never fails the operation that produced it. Record is safe on a nil service.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if s == nil {
		return
	}
	if err := s.Log(ctx, entry); err != nil {
		logger.WithModule("audit").Warn("failed to record audit entry",
			zap.String("action", entry.Action),
			zap.String("resource_id", entry.ResourceID),
			zap.Error(err),
		)
	}
}

func (s *AuditService) insert(db *gorm.DB, entry AuditEntry) error {
	action := strings.TrimSpace(entry.Action)
	result := strings.TrimSpace(entry.Result)
	switch {
	case action == "":
		return errors.New("audit service: action is required")
	case result == "":
		return errors.New("audit service: result is required")
	}

	row := models.AuditLog{
		UserID:     entry.UserID,
		Username:   strings.TrimSpace(entry.Username),
		Action:     action,
		Resource:   strings.TrimSpace(entry.Resource),
		ResourceID: strings.TrimSpace(entry.ResourceID),
		Result:     result,
		IPAddress:  strings.TrimSpace(entry.IPAddress),
		UserAgent:  truncate(strings.TrimSpace(entry.UserAgent), 512),
	}
	if entry.Metadata != nil {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("audit service: marshal metadata: %w", err)
		}
		row.Metadata = datatypes.JSON(encoded)
	}

	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("audit service: create log: %w", err)
	}
	return nil
}

// List returns one page of entries, newest first, with the filtered total.
func (s *AuditService) List(ctx context.Context, filters AuditFilters, page Page) ([]models.AuditLog, int64, error) {
	page = page.Normalise()
	query := filters.apply(s.db.WithContext(ensureContext(ctx)).Model(&models.AuditLog{}))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}

	var logs []models.AuditLog
	err := query.Order("created_at DESC").Order("id DESC").
		Offset(page.offset()).Limit(page.Size).
		Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}
	return logs, total, nil
}

// CleanupOlderThan deletes entries older than retentionDays and returns the
// number removed.
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}
	cutoff := s.now().UTC().AddDate(0, 0, -retentionDays)

	res := s.db.WithContext(ensureContext(ctx)).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (f AuditFilters) apply(query *gorm.DB) *gorm.DB {
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	for column, value := range map[string]string{"action": f.Action, "result": f.Result, "resource": f.Resource} {
		if value != "" {
			query = query.Where(column+" = ?", value)
		}
	}
	if f.Since != nil {
		query = query.Where("created_at >= ?", f.Since.UTC())
	}
	if f.Until != nil {
		query = query.Where("created_at <= ?", f.Until.UTC())
	}
	return query
}
