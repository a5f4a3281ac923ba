package models

import "time"

// Ledger sources recorded on VisitorLog.Source.
const (
	LogSourceMobile = "mobile"
	LogSourceManual = "manual"
)

// VisitorLog is one presence interval. A row is open while ExitTime is nil.
//
// OpenVisitorID mirrors VisitorID while the row is open and is cleared on
// exit; its unique index guarantees a single open row per visitor even across
// processes.
type VisitorLog struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	VisitorID     uint       `gorm:"not null;index" json:"visitorId"`
	Visitor       *Visitor   `json:"visitor,omitempty"`
	EntryTime     time.Time  `gorm:"not null;index" json:"entryTime"`
	ExitTime      *time.Time `gorm:"index" json:"exitTime"`
	OpenVisitorID *uint      `gorm:"uniqueIndex" json:"-"`
	Source        string     `gorm:"size:32" json:"source,omitempty"`
	Metadata      string     `gorm:"size:512" json:"metadata,omitempty"`
}

// IsOpen reports whether the visitor has not exited yet.
func (l *VisitorLog) IsOpen() bool {
	return l != nil && l.ExitTime == nil
}

// Close records the exit time and releases the open-row slot.
func (l *VisitorLog) Close(at time.Time) {
	exit := at
	l.ExitTime = &exit
	l.OpenVisitorID = nil
}
