package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visitor is a registered attendee. CredentialToken is minted once on create
// and is what the QR code encodes.
type Visitor struct {
	BaseModel

	FullName        string `gorm:"size:200;not null;index" json:"fullName"`
	Email           string `gorm:"size:256;index" json:"email"`
	PhoneNumber     string `gorm:"size:32;index" json:"phoneNumber"`
	CredentialToken string `gorm:"size:64;not null;uniqueIndex" json:"credentialToken"`
	Notes           string `gorm:"size:1000" json:"notes,omitempty"`

	InvitationID *uint       `gorm:"index" json:"invitationId,omitempty"`
	Invitation   *Invitation `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`

	Logs []VisitorLog `gorm:"foreignKey:VisitorID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate mints the credential token when the caller did not supply one.
func (v *Visitor) BeforeCreate(tx *gorm.DB) error {
	v.CredentialToken = strings.TrimSpace(v.CredentialToken)
	if v.CredentialToken == "" {
		v.CredentialToken = NewCredentialToken()
	}
	return nil
}

// NewCredentialToken returns a fresh random credential token.
func NewCredentialToken() string {
	return uuid.NewString()
}
