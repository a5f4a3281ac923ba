package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/pkg/crypto"
	apperrors "github.com/mellystark/visitormanagement/pkg/errors"
	"github.com/mellystark/visitormanagement/pkg/metrics"
)

// CreateAdminInput describes a new administrator account.
type CreateAdminInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	FullName string
	Email    string
}

// AdminService manages administrator accounts.
type AdminService struct {
	db    *gorm.DB
	audit *AuditService
	now   func() time.Time
}

// NewAdminService constructs an AdminService.
func NewAdminService(db *gorm.DB, audit *AuditService) (*AdminService, error) {
	if db == nil {
		return nil, errors.New("admin service: db is required")
	}
	return &AdminService{db: db, audit: audit, now: time.Now}, nil
}

// Authenticate verifies credentials and stamps the last login time.
func (s *AdminService) Authenticate(ctx context.Context, username, password string, actor Actor) (*models.User, error) {
	ctx = ensureContext(ctx)

	username = strings.TrimSpace(username)
	actor.Username = username

	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("admin service: load user: %w", err)
	}
	if err != nil || !crypto.VerifyPassword(user.PasswordHash, password) || !user.IsAdmin() {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		s.audit.Record(ctx, actor.entry(ActionLogin, "user", "", AuditResultFailure, nil))
		return nil, apperrors.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("admin service: stamp login: %w", err)
	}
	user.LastLoginAt = &now

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	actor.UserID = user.ID
	s.audit.Record(ctx, actor.entry(ActionLogin, "user", idString(user.ID), AuditResultSuccess, nil))
	return &user, nil
}

// Get returns an administrator by id.
func (s *AdminService) Get(ctx context.Context, id uint) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("admin service: get user: %w", err)
	}
	return &user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *AdminService) ChangePassword(ctx context.Context, id uint, current, next string, actor Actor) error {
	ctx = ensureContext(ctx)

	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !crypto.VerifyPassword(user.PasswordHash, current) {
		s.audit.Record(ctx, actor.entry(ActionChangePassword, "user", idString(id), AuditResultFailure, nil))
		return ErrCurrentPasswordWrong
	}
	if err := s.setPassword(ctx, user, next); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.entry(ActionChangePassword, "user", idString(id), AuditResultSuccess, nil))
	return nil
}

// ChangeTheme stores the console theme (light or dark).
func (s *AdminService) ChangeTheme(ctx context.Context, id uint, theme string) (*models.User, error) {
	ctx = ensureContext(ctx)

	theme = strings.ToLower(strings.TrimSpace(theme))
	if theme != models.ThemeLight && theme != models.ThemeDark {
		return nil, ErrInvalidTheme
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("theme", theme).Error; err != nil {
		return nil, fmt.Errorf("admin service: change theme: %w", err)
	}
	user.Theme = theme
	return user, nil
}

// UpdateProfile changes the display name and email.
func (s *AdminService) UpdateProfile(ctx context.Context, id uint, input ProfileUpdate, actor Actor) (*models.User, error) {
	ctx = ensureContext(ctx)

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, validationError("fullName", "is required")
	}
	email := models.NormalizeEmail(input.Email)

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"full_name": fullName,
		"email":     email,
	}).Error; err != nil {
		return nil, fmt.Errorf("admin service: update profile: %w", err)
	}

	s.audit.Record(ctx, actor.entry(ActionUpdateProfile, "user", idString(id), AuditResultSuccess, nil))
	return s.Get(ctx, id)
}

// CreateAdmin adds another administrator account.
func (s *AdminService) CreateAdmin(ctx context.Context, input CreateAdminInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, validationError("username", "is required")
	}
	if err := crypto.CheckPasswordPolicy(input.Password); err != nil {
		return nil, ErrWeakPassword
	}
	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("admin service: hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        models.NormalizeEmail(input.Email),
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Theme:        models.ThemeLight,
		FullName:     strings.TrimSpace(input.FullName),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("admin service: create admin: %w", err)
	}
	return user, nil
}

// ResetPassword sets a new password for username without the current one.
func (s *AdminService) ResetPassword(ctx context.Context, username, password string) error {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("admin service: load user: %w", err)
	}
	return s.setPassword(ctx, &user, password)
}

func (s *AdminService) setPassword(ctx context.Context, user *models.User, password string) error {
	if err := crypto.CheckPasswordPolicy(password); err != nil {
		return ErrWeakPassword
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("admin service: hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("admin service: update password: %w", err)
	}
	user.PasswordHash = hash
	return nil
}
