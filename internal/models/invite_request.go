package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// InviteStatus is the lifecycle state of an InviteRequest.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "Pending"
	InviteStatusApproved InviteStatus = "Approved"
	InviteStatusRejected InviteStatus = "Rejected"
	// InviteStatusExpired is reserved; nothing transitions into it.
	InviteStatusExpired InviteStatus = "Expired"
)

// Valid reports whether s is a known status.
func (s InviteStatus) Valid() bool {
	switch s {
	case InviteStatusPending, InviteStatusApproved, InviteStatusRejected, InviteStatusExpired:
		return true
	}
	return false
}

// InviteRequest is a participation request submitted against an invitation.
type InviteRequest struct {
	ID uint `gorm:"primaryKey" json:"id"`

	InvitationID uint        `gorm:"not null;index;uniqueIndex:idx_invite_requests_pending,priority:1" json:"invitationId"`
	Invitation   *Invitation `json:"-"`

	FullName    string `gorm:"size:200;not null" json:"fullName"`
	Email       string `gorm:"size:256;not null;uniqueIndex:idx_invite_requests_pending,priority:2;index:idx_invite_requests_email_status,priority:1" json:"email"`
	PhoneNumber string `gorm:"size:32" json:"phoneNumber"`
	Notes       string `gorm:"size:2000" json:"notes,omitempty"`

	Status InviteStatus `gorm:"size:16;not null;index:idx_invite_requests_email_status,priority:2" json:"status"`
	// PendingKey is 1 while the request is pending with an email and NULL
	// otherwise, so the unique index only covers live pending requests.
	PendingKey *int `gorm:"uniqueIndex:idx_invite_requests_pending,priority:3" json:"-"`

	CreatedAt       time.Time  `gorm:"index" json:"createdAt"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty"`
	DecidedByID     *uint      `json:"decidedById,omitempty"`
	VisitorID       *uint      `gorm:"index" json:"visitorId,omitempty"`
	Visitor         *Visitor   `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	RejectionReason string     `gorm:"size:500" json:"rejectionReason,omitempty"`
}

// BeforeSave normalises the email and keeps PendingKey in step with Status.
func (r *InviteRequest) BeforeSave(tx *gorm.DB) error {
	r.Email = NormalizeEmail(r.Email)
	if r.Status == "" {
		r.Status = InviteStatusPending
	}
	if r.Status == InviteStatusPending && r.Email != "" {
		one := 1
		r.PendingKey = &one
	} else {
		r.PendingKey = nil
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
