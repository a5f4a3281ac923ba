package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/pkg/crypto"
)

// Default administrator seeded into an empty database.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "Admin123!"
)

// SeedOptions controls the administrator account created on first start.
type SeedOptions struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
	AdminFullName string
}

func (o SeedOptions) withDefaults() SeedOptions {
	if strings.TrimSpace(o.AdminUsername) == "" {
		o.AdminUsername = DefaultAdminUsername
	}
	if strings.TrimSpace(o.AdminEmail) == "" {
		o.AdminEmail = DefaultAdminEmail
	}
	if o.AdminPassword == "" {
		o.AdminPassword = DefaultAdminPassword
	}
	if strings.TrimSpace(o.AdminFullName) == "" {
		o.AdminFullName = "Administrator"
	}
	return o
}

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Invitation{},
		&models.Visitor{},
		&models.VisitorLog{},
		&models.InviteRequest{},
		&models.AuditLog{},
	)
}

// SeedData creates the administrator account when it does not exist yet.
// Existing accounts are left untouched so a changed password survives restarts.
func SeedData(db *gorm.DB, opts SeedOptions) error {
	opts = opts.withDefaults()

	var existing models.User
	err := db.Where("username = ?", opts.AdminUsername).Take(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := crypto.HashPassword(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Username:     opts.AdminUsername,
		Email:        models.NormalizeEmail(opts.AdminEmail),
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Theme:        models.ThemeLight,
		FullName:     opts.AdminFullName,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}
