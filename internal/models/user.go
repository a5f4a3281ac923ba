package models

import "time"

// Administrator roles and console themes.
const (
	RoleAdmin = "Admin"

	ThemeLight = "light"
	ThemeDark  = "dark"
)

// User is an administrator account.
type User struct {
	BaseModel

	Username     string     `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email        string     `gorm:"size:256;index" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         string     `gorm:"size:32;not null" json:"role"`
	Theme        string     `gorm:"size:16;not null" json:"theme"`
	FullName     string     `gorm:"size:200" json:"fullName"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// IsAdmin reports whether the account may use administrator endpoints.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
