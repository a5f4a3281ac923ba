package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/internal/realtime"
	"github.com/mellystark/visitormanagement/pkg/logger"
	"github.com/mellystark/visitormanagement/pkg/metrics"
)

// Notes written when a visitor is removed from an invitation.
const (
	NoteReturnedToPending  = " | removed from attendee list and returned to pending"
	NotePreviouslyApproved = "previously approved, removed from attendee list"

	maxRequestNotesLength   = 2000
	maxInvitationNameLength = 200
	maxSlugLength           = 32
	maxRejectReasonLength   = 500
)

// InvitationInput carries the fields accepted when creating an invitation.
type InvitationInput struct {
	Name        string
	EventDate   time.Time
	Slug        string
	Description string
	IsActive    *bool
}

// InvitationUpdate carries the mutable invitation fields. Nil fields are left untouched.
type InvitationUpdate struct {
	Name        *string
	EventDate   *time.Time
	Description *string
	IsActive    *bool
}

// InviteRequestInput is a public participation request.
type InviteRequestInput struct {
	FullName    string
	Email       string
	PhoneNumber string
	Notes       string
}

// RejectDecision describes a rejected request. The request row itself is deleted.
type RejectDecision struct {
	RequestID uint                `json:"requestId"`
	Status    models.InviteStatus `json:"status"`
	Reason    string              `json:"reason"`
	DecidedAt time.Time           `json:"decidedAt"`
}

// RemovalOutcome reports what happened to the pending queue when a visitor
// was removed from an invitation.
type RemovalOutcome struct {
	VisitorID uint `json:"visitorId"`
	RequestID uint `json:"requestId"`
	Recreated bool `json:"recreated"`
}

// InvitationService manages invitations and their participation requests.
type InvitationService struct {
	db       *gorm.DB
	notifier *Notifier
	stats    *StatsService
	audit    *AuditService
	now      func() time.Time
	log      *zap.Logger
}

// NewInvitationService constructs an InvitationService. notifier, stats and audit may be nil.
func NewInvitationService(db *gorm.DB, notifier *Notifier, stats *StatsService, audit *AuditService) (*InvitationService, error) {
	if db == nil {
		return nil, errors.New("invitation service: db is required")
	}
	return &InvitationService{
		db:       db,
		notifier: notifier,
		stats:    stats,
		audit:    audit,
		now:      time.Now,
		log:      logger.WithModule("invitations"),
	}, nil
}

// Create stores a new invitation. Slugs are unique and lower case.
func (s *InvitationService) Create(ctx context.Context, input InvitationInput, actor Actor) (*models.Invitation, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	switch {
	case name == "":
		return nil, validationError("name", "is required")
	case utf8.RuneCountInString(name) > maxInvitationNameLength:
		return nil, validationError("name", "must be at most 200 characters")
	case slug == "":
		return nil, validationError("slug", "is required")
	case len(slug) > maxSlugLength:
		return nil, validationError("slug", "must be at most 32 characters")
	case input.EventDate.IsZero():
		return nil, validationError("eventDate", "is required")
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	invitation := &models.Invitation{
		Name:        name,
		EventDate:   input.EventDate.UTC(),
		Slug:        slug,
		IsActive:    active,
		Description: strings.TrimSpace(input.Description),
		CreatedByID: actor.userID(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Invitation{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return fmt.Errorf("check slug: %w", err)
		}
		if count > 0 {
			return ErrInvitationSlugTaken
		}
		return tx.Create(invitation).Error
	})
	if err != nil {
		if errors.Is(err, ErrInvitationSlugTaken) || isUniqueConstraintError(err) {
			return nil, ErrInvitationSlugTaken
		}
		return nil, fmt.Errorf("invitation service: create invitation: %w", err)
	}

	s.audit.Record(ctx, actor.entry(ActionInvitationCreate, "invitation", idString(invitation.ID), AuditResultSuccess, map[string]any{
		"slug": invitation.Slug,
	}))
	return invitation, nil
}

// List returns invitations, newest first.
func (s *InvitationService) List(ctx context.Context, onlyActive bool) ([]models.Invitation, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Invitation{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}

	invitations := make([]models.Invitation, 0)
	if err := query.Order("created_at DESC").Order("id DESC").Find(&invitations).Error; err != nil {
		return nil, fmt.Errorf("invitation service: list invitations: %w", err)
	}
	return invitations, nil
}

// Get returns an invitation by id regardless of its active flag.
func (s *InvitationService) Get(ctx context.Context, id uint) (*models.Invitation, error) {
	return s.find(s.db.WithContext(ensureContext(ctx)), "id = ?", id)
}

// GetActiveBySlug resolves a public invitation. Inactive invitations are not found.
func (s *InvitationService) GetActiveBySlug(ctx context.Context, slug string) (*models.Invitation, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, ErrInvitationNotFound
	}
	return s.find(s.db.WithContext(ensureContext(ctx)), "slug = ? AND is_active = ?", slug, true)
}

func (s *InvitationService) find(db *gorm.DB, query string, args ...any) (*models.Invitation, error) {
	var invitation models.Invitation
	if err := db.Where(query, args...).Take(&invitation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("invitation service: load invitation: %w", err)
	}
	return &invitation, nil
}

// Update applies the supplied changes. The slug cannot be changed.
func (s *InvitationService) Update(ctx context.Context, id uint, input InvitationUpdate, actor Actor) (*models.Invitation, error) {
	ctx = ensureContext(ctx)

	invitation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, validationError("name", "is required")
		}
		if utf8.RuneCountInString(name) > maxInvitationNameLength {
			return nil, validationError("name", "must be at most 200 characters")
		}
		updates["name"] = name
	}
	if input.EventDate != nil {
		if input.EventDate.IsZero() {
			return nil, validationError("eventDate", "is required")
		}
		updates["event_date"] = input.EventDate.UTC()
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return invitation, nil
	}

	if err := s.db.WithContext(ctx).Model(invitation).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("invitation service: update invitation: %w", err)
	}

	s.audit.Record(ctx, actor.entry(ActionInvitationUpdate, "invitation", idString(id), AuditResultSuccess, nil))
	return s.Get(ctx, id)
}

// Delete removes an invitation and its requests. It is refused while
// visitors still reference the invitation.
func (s *InvitationService) Delete(ctx context.Context, id uint, actor Actor) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.find(tx, "id = ?", id); err != nil {
			return err
		}
		var visitors int64
		if err := tx.Model(&models.Visitor{}).Where("invitation_id = ?", id).Count(&visitors).Error; err != nil {
			return fmt.Errorf("count visitors: %w", err)
		}
		if visitors > 0 {
			return ErrInvitationHasVisitors
		}
		if err := tx.Where("invitation_id = ?", id).Delete(&models.InviteRequest{}).Error; err != nil {
			return fmt.Errorf("delete requests: %w", err)
		}
		if err := tx.Delete(&models.Invitation{}, id).Error; err != nil {
			return fmt.Errorf("delete invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvitationNotFound) || errors.Is(err, ErrInvitationHasVisitors) {
			return err
		}
		return fmt.Errorf("invitation service: delete invitation: %w", err)
	}

	s.audit.Record(ctx, actor.entry(ActionInvitationDelete, "invitation", idString(id), AuditResultSuccess, nil))
	return nil
}

// Visitors lists the visitors attached to an invitation.
func (s *InvitationService) Visitors(ctx context.Context, invitationID uint) ([]models.Visitor, error) {
	ctx = ensureContext(ctx)

	visitors := make([]models.Visitor, 0)
	if err := s.db.WithContext(ctx).
		Where("invitation_id = ?", invitationID).
		Order("id ASC").
		Find(&visitors).Error; err != nil {
		return nil, fmt.Errorf("invitation service: list visitors: %w", err)
	}
	return visitors, nil
}

// Requests lists the requests of an invitation, optionally filtered by status.
func (s *InvitationService) Requests(ctx context.Context, invitationID uint, status string) ([]models.InviteRequest, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Where("invitation_id = ?", invitationID)
	if status = strings.TrimSpace(status); status != "" {
		st := models.InviteStatus(status)
		if !st.Valid() {
			return nil, ErrInvalidInviteStatus
		}
		query = query.Where("status = ?", st)
	}

	requests := make([]models.InviteRequest, 0)
	if err := query.Order("created_at DESC").Order("id DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("invitation service: list requests: %w", err)
	}
	return requests, nil
}

// Submit records a public participation request against an active invitation.
func (s *InvitationService) Submit(ctx context.Context, slug string, input InviteRequestInput) (*models.InviteRequest, error) {
	ctx = ensureContext(ctx)

	fullName := strings.TrimSpace(input.FullName)
	email := models.NormalizeEmail(input.Email)
	if fullName == "" {
		return nil, validationError("fullName", "is required")
	}
	if email == "" {
		return nil, validationError("email", "is required")
	}

	invitation, err := s.GetActiveBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	request := &models.InviteRequest{
		InvitationID: invitation.ID,
		FullName:     fullName,
		Email:        email,
		PhoneNumber:  strings.TrimSpace(input.PhoneNumber),
		Notes:        strings.TrimSpace(input.Notes),
		Status:       models.InviteStatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending int64
		if err := tx.Model(&models.InviteRequest{}).
			Where("invitation_id = ? AND email = ? AND status = ?", invitation.ID, email, models.InviteStatusPending).
			Count(&pending).Error; err != nil {
			return fmt.Errorf("check pending: %w", err)
		}
		if pending > 0 {
			return ErrDuplicatePendingRequest
		}
		return tx.Create(request).Error
	})
	if err != nil {
		if errors.Is(err, ErrDuplicatePendingRequest) || isUniqueConstraintError(err) {
			return nil, ErrDuplicatePendingRequest
		}
		return nil, fmt.Errorf("invitation service: submit request: %w", err)
	}

	metrics.InviteDecisions.WithLabelValues("submitted").Inc()
	requestID := request.ID
	s.notifier.Notify(ctx, NotificationPayload{
		Type:      realtime.EventInviteRequestSubmitted,
		Message:   fullName + " davet başvurusu yaptı.",
		RequestID: &requestID,
	})

	return request, nil
}

// Approve converts a pending request into a visitor and deletes the request.
func (s *InvitationService) Approve(ctx context.Context, requestID uint, actor Actor) (*models.Visitor, error) {
	ctx = ensureContext(ctx)

	var visitor *models.Visitor
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := loadPendingRequest(tx, requestID)
		if err != nil {
			return err
		}

		invitationID := request.InvitationID
		visitor = &models.Visitor{
			FullName:     request.FullName,
			Email:        request.Email,
			PhoneNumber:  request.PhoneNumber,
			InvitationID: &invitationID,
		}
		if err := tx.Create(visitor).Error; err != nil {
			return fmt.Errorf("create visitor: %w", err)
		}

		if s.audit != nil {
			entry := actor.entry(ActionRequestApprove, "invite_request", idString(request.ID), AuditResultSuccess, map[string]any{
				"invitation_id": request.InvitationID,
				"email":         request.Email,
				"visitor_id":    visitor.ID,
				"decided_at":    s.now().UTC(),
			})
			if err := s.audit.LogTx(tx, entry); err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.InviteRequest{}, request.ID).Error; err != nil {
			return fmt.Errorf("delete request: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInviteRequestNotFound) || errors.Is(err, ErrInviteRequestNotPending) {
			return nil, err
		}
		return nil, fmt.Errorf("invitation service: approve request: %w", err)
	}

	metrics.InviteDecisions.WithLabelValues("approved").Inc()
	s.log.Info("invite request approved", zap.Uint("request_id", requestID), zap.Uint("visitor_id", visitor.ID))

	visitorID := visitor.ID
	s.notifier.Notify(ctx, NotificationPayload{
		Type:      realtime.EventInviteRequestApproved,
		Message:   visitor.FullName + " davetlilere eklendi.",
		RequestID: &requestID,
		VisitorID: &visitorID,
	})
	s.stats.broadcastQuietly(ctx)

	return visitor, nil
}

// Reject declines a pending request and deletes it.
func (s *InvitationService) Reject(ctx context.Context, requestID uint, reason string, actor Actor) (*RejectDecision, error) {
	ctx = ensureContext(ctx)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationError("reason", "is required")
	}
	if utf8.RuneCountInString(reason) > maxRejectReasonLength {
		return nil, validationError("reason", "must be at most 500 characters")
	}

	decision := &RejectDecision{
		RequestID: requestID,
		Status:    models.InviteStatusRejected,
		Reason:    reason,
		DecidedAt: s.now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := loadPendingRequest(tx, requestID)
		if err != nil {
			return err
		}

		if s.audit != nil {
			entry := actor.entry(ActionRequestReject, "invite_request", idString(request.ID), AuditResultSuccess, map[string]any{
				"invitation_id": request.InvitationID,
				"email":         request.Email,
				"reason":        reason,
				"decided_at":    decision.DecidedAt,
			})
			if err := s.audit.LogTx(tx, entry); err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.InviteRequest{}, request.ID).Error; err != nil {
			return fmt.Errorf("delete request: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInviteRequestNotFound) || errors.Is(err, ErrInviteRequestNotPending) {
			return nil, err
		}
		return nil, fmt.Errorf("invitation service: reject request: %w", err)
	}

	metrics.InviteDecisions.WithLabelValues("rejected").Inc()
	s.notifier.Notify(ctx, NotificationPayload{
		Type:      realtime.EventInviteRequestRejected,
		Message:   "Başvuru reddedildi.",
		RequestID: &requestID,
	})

	return decision, nil
}

func loadPendingRequest(tx *gorm.DB, requestID uint) (*models.InviteRequest, error) {
	var request models.InviteRequest
	if err := tx.Take(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteRequestNotFound
		}
		return nil, fmt.Errorf("load request: %w", err)
	}
	if request.Status != models.InviteStatusPending {
		return nil, ErrInviteRequestNotPending
	}
	return &request, nil
}

// RemoveVisitor deletes a visitor from an invitation and puts the person back
// into the pending queue, either by annotating a matching pending request or
// by creating a new one. All steps share one transaction.
func (s *InvitationService) RemoveVisitor(ctx context.Context, invitationID, visitorID uint, actor Actor) (*RemovalOutcome, error) {
	ctx = ensureContext(ctx)

	outcome := &RemovalOutcome{VisitorID: visitorID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var visitor models.Visitor
		if err := tx.Where("id = ? AND invitation_id = ?", visitorID, invitationID).Take(&visitor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVisitorNotInvited
			}
			return fmt.Errorf("load visitor: %w", err)
		}

		if err := deleteVisitorTx(tx, visitor.ID); err != nil {
			return err
		}

		match, err := findPendingMatch(tx, invitationID, &visitor)
		if err != nil {
			return err
		}
		if match != nil {
			if err := tx.Model(match).Update("notes", returnedToPendingNote(match.Notes)).Error; err != nil {
				return fmt.Errorf("annotate request: %w", err)
			}
			outcome.RequestID = match.ID
			return nil
		}

		request := &models.InviteRequest{
			InvitationID: invitationID,
			FullName:     visitor.FullName,
			Email:        visitor.Email,
			PhoneNumber:  visitor.PhoneNumber,
			Notes:        NotePreviouslyApproved,
			Status:       models.InviteStatusPending,
		}
		if err := tx.Create(request).Error; err != nil {
			return fmt.Errorf("recreate request: %w", err)
		}
		outcome.RequestID = request.ID
		outcome.Recreated = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrVisitorNotInvited) {
			return nil, err
		}
		return nil, fmt.Errorf("invitation service: remove visitor: %w", err)
	}

	metrics.InviteDecisions.WithLabelValues("returned").Inc()
	s.audit.Record(ctx, actor.entry(ActionRemoveVisitor, "visitor", idString(visitorID), AuditResultSuccess, map[string]any{
		"invitation_id": invitationID,
		"request_id":    outcome.RequestID,
		"recreated":     outcome.Recreated,
	}))

	s.notifier.Notify(ctx, NotificationPayload{
		Type:      realtime.EventVisitorRemoved,
		Message:   "Davetli silindi ve tekrar bekleyenler listesine alındı.",
		VisitorID: &outcome.VisitorID,
		RequestID: &outcome.RequestID,
	})
	s.stats.broadcastQuietly(ctx)

	return outcome, nil
}

// returnedToPendingNote marks notes as returned to pending once, keeping the
// result within the notes column.
func returnedToPendingNote(notes string) string {
	if strings.HasSuffix(notes, NoteReturnedToPending) {
		return notes
	}
	keep := maxRequestNotesLength - utf8.RuneCountInString(NoteReturnedToPending)
	return truncate(notes, keep) + NoteReturnedToPending
}

// findPendingMatch looks for a pending request of the same person, matching
// by email, then phone, then full name.
func findPendingMatch(tx *gorm.DB, invitationID uint, visitor *models.Visitor) (*models.InviteRequest, error) {
	pending := func() *gorm.DB {
		return tx.Where("invitation_id = ? AND status = ?", invitationID, models.InviteStatusPending).Order("id ASC")
	}

	candidates := []struct {
		value string
		query string
	}{
		{models.NormalizeEmail(visitor.Email), "email = ?"},
		{strings.TrimSpace(visitor.PhoneNumber), "phone_number = ?"},
		{strings.ToLower(strings.TrimSpace(visitor.FullName)), "LOWER(full_name) = ?"},
	}
	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		var found []models.InviteRequest
		if err := pending().Where(c.query, c.value).Limit(1).Find(&found).Error; err != nil {
			return nil, fmt.Errorf("match pending request: %w", err)
		}
		if len(found) > 0 {
			return &found[0], nil
		}
	}
	return nil, nil
}
