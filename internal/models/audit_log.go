package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records an administrative action. Decided invite requests are
// deleted, so their outcome lives here.
type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     *uint          `gorm:"index" json:"userId,omitempty"`
	Username   string         `gorm:"size:64" json:"username"`
	Action     string         `gorm:"size:64;not null;index" json:"action"`
	Resource   string         `gorm:"size:64;index" json:"resource"`
	ResourceID string         `gorm:"size:64;index" json:"resourceId,omitempty"`
	Result     string         `gorm:"size:16;not null" json:"result"`
	IPAddress  string         `gorm:"size:64" json:"ipAddress,omitempty"`
	UserAgent  string         `gorm:"size:512" json:"userAgent,omitempty"`
	Metadata   datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
}
