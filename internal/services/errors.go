package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/mellystark/visitormanagement/pkg/errors"
)

// Domain errors returned by the services. Each carries its HTTP status so
// handlers can render them directly.
var (
	ErrVisitorNotFound     = apperrors.New("visitor.not_found", "Visitor not found", http.StatusNotFound)
	ErrEmptyCredential     = apperrors.New("scan.empty_token", "QR kod verisi boş olamaz.", http.StatusBadRequest)
	ErrCredentialNotFound  = apperrors.New("scan.not_invited", "Davetli değil.", http.StatusNotFound)
	ErrLogNotFound         = apperrors.New("log.not_found", "Log kaydı bulunamadı.", http.StatusNotFound)
	ErrLogAlreadyExited    = apperrors.New("log.already_exited", "Çıkış zamanı zaten kayıtlı.", http.StatusConflict)
	ErrVisitorHasNoLogs    = apperrors.New("log.none_for_visitor", "Bu ziyaretçiye ait log bulunamadı.", http.StatusNotFound)
	ErrReportEmpty         = apperrors.New("log.report_empty", "Belirtilen kriterlerde log bulunamadı.", http.StatusNotFound)
	ErrVisitorIDRequired   = apperrors.New("log.visitor_required", "visitorId parametresi zorunludur ve pozitif olmalıdır.", http.StatusBadRequest)
	ErrVisitorEmailMissing = apperrors.New("visitor.email_missing", "Visitor has no email address", http.StatusBadRequest)
	ErrMailDisabled        = apperrors.New("mail.disabled", "Email delivery is not configured", http.StatusServiceUnavailable)

	ErrInvitationNotFound    = apperrors.New("invitation.not_found", "Invitation not found", http.StatusNotFound)
	ErrInvitationSlugTaken   = apperrors.New("invitation.slug_taken", "An invitation with this slug already exists", http.StatusConflict)
	ErrInvitationHasVisitors = apperrors.New("invitation.has_visitors", "Invitation still has visitors", http.StatusConflict)
	ErrVisitorNotInvited     = apperrors.New("invitation.visitor_not_found", "Visitor does not belong to this invitation", http.StatusNotFound)

	ErrInviteRequestNotFound   = apperrors.New("invite_request.not_found", "Invite request not found", http.StatusNotFound)
	ErrInviteRequestNotPending = apperrors.New("invite_request.not_pending", "Invite request is not pending", http.StatusConflict)
	ErrDuplicatePendingRequest = apperrors.New("invite_request.already_pending", "A pending request already exists for this email", http.StatusConflict)
	ErrInvalidInviteStatus     = apperrors.New("invite_request.invalid_status", "Unknown invite request status", http.StatusBadRequest)

	ErrUserNotFound         = apperrors.New("user.not_found", "User not found", http.StatusNotFound)
	ErrCurrentPasswordWrong = apperrors.New("user.password_mismatch", "Current password is incorrect", http.StatusBadRequest)
	ErrWeakPassword         = apperrors.New("user.weak_password", "Password must be at least 6 characters and contain a digit", http.StatusBadRequest)
	ErrInvalidTheme         = apperrors.New("user.invalid_theme", "Theme must be light or dark", http.StatusBadRequest)
	ErrUsernameTaken        = apperrors.New("user.username_taken", "Username is already in use", http.StatusConflict)
)

// validationError builds a field level validation failure.
func validationError(field, message string) *apperrors.AppError {
	return apperrors.ErrValidation.WithDetails(map[string]string{field: message})
}

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate key") ||
		strings.Contains(lower, "duplicate entry")
}
