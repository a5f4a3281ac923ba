package models

import "time"

// Invitation describes an event visitors can request to attend through its
// public slug.
type Invitation struct {
	BaseModel

	Name        string    `gorm:"size:200;not null" json:"name"`
	EventDate   time.Time `gorm:"not null;index" json:"eventDate"`
	Slug        string    `gorm:"size:32;not null;uniqueIndex" json:"slug"`
	IsActive    bool      `gorm:"not null;index" json:"isActive"`
	Description string    `gorm:"size:2000" json:"description,omitempty"`

	CreatedByID *uint `gorm:"index" json:"createdById,omitempty"`
	CreatedBy   *User `gorm:"constraint:OnDelete:SET NULL" json:"-"`

	Requests []InviteRequest `gorm:"foreignKey:InvitationID;constraint:OnDelete:CASCADE" json:"-"`
}
