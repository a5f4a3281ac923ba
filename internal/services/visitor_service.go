package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/internal/realtime"
)

// VisitorInput carries the mutable visitor fields.
type VisitorInput struct {
	FullName     string
	Email        string
	PhoneNumber  string
	Notes        string
	InvitationID *uint
}

func (in VisitorInput) normalise() (VisitorInput, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.FullName == "" {
		return in, validationError("fullName", "is required")
	}
	return in, nil
}

// VisitorFilter narrows the filtered visitor listing. Range and OnlyNotExited
// match visitors having at least one qualifying ledger row.
type VisitorFilter struct {
	FullName      string
	PhoneNumber   string
	Range         DateRange
	OnlyNotExited bool
}

// VisitorService manages the visitor registry.
type VisitorService struct {
	db       *gorm.DB
	notifier *Notifier
	stats    *StatsService
	audit    *AuditService
}

// NewVisitorService constructs a VisitorService. notifier, stats and audit may be nil.
func NewVisitorService(db *gorm.DB, notifier *Notifier, stats *StatsService, audit *AuditService) (*VisitorService, error) {
	if db == nil {
		return nil, errors.New("visitor service: db is required")
	}
	return &VisitorService{
		db:       db,
		notifier: notifier,
		stats:    stats,
		audit:    audit,
	}, nil
}

// Create registers a visitor and mints its credential token.
func (s *VisitorService) Create(ctx context.Context, input VisitorInput, actor Actor) (*models.Visitor, error) {
	ctx = ensureContext(ctx)

	input, err := input.normalise()
	if err != nil {
		return nil, err
	}

	if input.InvitationID != nil {
		if err := s.ensureInvitation(ctx, *input.InvitationID); err != nil {
			return nil, err
		}
	}

	visitor := &models.Visitor{
		FullName:     input.FullName,
		Email:        input.Email,
		PhoneNumber:  input.PhoneNumber,
		Notes:        input.Notes,
		InvitationID: input.InvitationID,
	}
	if err := s.db.WithContext(ctx).Create(visitor).Error; err != nil {
		return nil, fmt.Errorf("visitor service: create visitor: %w", err)
	}

	s.audit.Record(ctx, actor.entry(ActionVisitorCreate, "visitor", idString(visitor.ID), AuditResultSuccess, map[string]any{
		"full_name": visitor.FullName,
	}))
	s.notifyChange(ctx, realtime.EventVisitorAdded, "Yeni ziyaretçi eklendi", visitor.ID)

	return visitor, nil
}

// Get returns a visitor by id.
func (s *VisitorService) Get(ctx context.Context, id uint) (*models.Visitor, error) {
	ctx = ensureContext(ctx)

	var visitor models.Visitor
	if err := s.db.WithContext(ctx).Take(&visitor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitorNotFound
		}
		return nil, fmt.Errorf("visitor service: get visitor: %w", err)
	}
	return &visitor, nil
}

// List returns every visitor ordered by id.
func (s *VisitorService) List(ctx context.Context) ([]models.Visitor, error) {
	ctx = ensureContext(ctx)

	visitors := make([]models.Visitor, 0)
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&visitors).Error; err != nil {
		return nil, fmt.Errorf("visitor service: list visitors: %w", err)
	}
	return visitors, nil
}

// Filter returns a page of visitors ordered by name.
func (s *VisitorService) Filter(ctx context.Context, filter VisitorFilter, page Page) ([]models.Visitor, int64, error) {
	ctx = ensureContext(ctx)
	page = page.Normalise()

	query := s.db.WithContext(ctx).Model(&models.Visitor{})

	if strings.TrimSpace(filter.FullName) != "" {
		query = query.Where("LOWER(full_name) LIKE ?", containsPattern(filter.FullName))
	}
	if strings.TrimSpace(filter.PhoneNumber) != "" {
		query = query.Where("LOWER(phone_number) LIKE ?", containsPattern(filter.PhoneNumber))
	}
	if filter.Range.Start != nil || filter.Range.End != nil {
		sub := s.db.Model(&models.VisitorLog{}).Select("1").Where("visitor_logs.visitor_id = visitors.id")
		if filter.Range.Start != nil {
			sub = sub.Where("visitor_logs.entry_time >= ?", filter.Range.Start.UTC())
		}
		if filter.Range.End != nil {
			sub = sub.Where("visitor_logs.entry_time <= ?", filter.Range.End.UTC())
		}
		query = query.Where("EXISTS (?)", sub)
	}
	if filter.OnlyNotExited {
		sub := s.db.Model(&models.VisitorLog{}).Select("1").
			Where("visitor_logs.visitor_id = visitors.id AND visitor_logs.exit_time IS NULL")
		query = query.Where("EXISTS (?)", sub)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("visitor service: count visitors: %w", err)
	}

	visitors := make([]models.Visitor, 0, page.Size)
	if err := query.
		Order("full_name ASC").
		Order("id ASC").
		Offset(page.offset()).
		Limit(page.Size).
		Find(&visitors).Error; err != nil {
		return nil, 0, fmt.Errorf("visitor service: filter visitors: %w", err)
	}
	return visitors, total, nil
}

// Update changes the mutable fields. The credential token and invitation
// link are never modified.
func (s *VisitorService) Update(ctx context.Context, id uint, input VisitorInput, actor Actor) (*models.Visitor, error) {
	ctx = ensureContext(ctx)

	input, err := input.normalise()
	if err != nil {
		return nil, err
	}

	visitor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"full_name":    input.FullName,
		"email":        input.Email,
		"phone_number": input.PhoneNumber,
		"notes":        input.Notes,
	}
	if err := s.db.WithContext(ctx).Model(visitor).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("visitor service: update visitor: %w", err)
	}

	visitor, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor.entry(ActionVisitorUpdate, "visitor", idString(id), AuditResultSuccess, nil))
	s.notifyChange(ctx, realtime.EventVisitorUpdated, "Ziyaretçi güncellendi", id)

	return visitor, nil
}

// Delete removes a visitor together with its ledger rows. Invite requests
// pointing at the visitor are detached first.
func (s *VisitorService) Delete(ctx context.Context, id uint, actor Actor) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var visitor models.Visitor
		if err := tx.Take(&visitor, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVisitorNotFound
			}
			return fmt.Errorf("load visitor: %w", err)
		}
		return deleteVisitorTx(tx, visitor.ID)
	})
	if err != nil {
		if errors.Is(err, ErrVisitorNotFound) {
			return err
		}
		return fmt.Errorf("visitor service: delete visitor: %w", err)
	}

	s.audit.Record(ctx, actor.entry(ActionVisitorDelete, "visitor", idString(id), AuditResultSuccess, nil))
	s.notifyChange(ctx, realtime.EventVisitorDeleted, "Ziyaretçi silindi", id)

	return nil
}

// deleteVisitorTx detaches invite requests, drops ledger rows and removes the visitor.
func deleteVisitorTx(tx *gorm.DB, visitorID uint) error {
	if err := tx.Model(&models.InviteRequest{}).
		Where("visitor_id = ?", visitorID).
		Update("visitor_id", nil).Error; err != nil {
		return fmt.Errorf("detach invite requests: %w", err)
	}
	if err := tx.Where("visitor_id = ?", visitorID).Delete(&models.VisitorLog{}).Error; err != nil {
		return fmt.Errorf("delete visitor logs: %w", err)
	}
	if err := tx.Delete(&models.Visitor{}, visitorID).Error; err != nil {
		return fmt.Errorf("delete visitor: %w", err)
	}
	return nil
}

func (s *VisitorService) ensureInvitation(ctx context.Context, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Invitation{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("visitor service: check invitation: %w", err)
	}
	if count == 0 {
		return ErrInvitationNotFound
	}
	return nil
}

func (s *VisitorService) notifyChange(ctx context.Context, event, message string, visitorID uint) {
	id := visitorID
	s.notifier.Notify(ctx, NotificationPayload{Type: event, Message: message, VisitorID: &id})
	s.stats.broadcastQuietly(ctx)
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
