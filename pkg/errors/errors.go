// Package errors defines the API error type rendered in the response envelope.
package errors

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
)

// AppError is an error with a stable machine code, a client-facing message
// and the HTTP status it maps to. Internal is logged but never rendered.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	StatusCode int               `json:"-"`
	Internal   error             `json:"-"`
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Internal != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	default:
		return e.Message
	}
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is compares by code, so decorated copies still match their sentinel.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if e == nil || !errors.As(target, &other) || other == nil {
		return false
	}
	return e.Code == other.Code
}

// WithInternal returns a copy carrying err as the logged cause.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}
	cpy := *e
	cpy.Internal = err
	return &cpy
}

// WithDetails returns a copy carrying per-field messages.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	if e == nil {
		return nil
	}
	cpy := *e
	if len(details) > 0 {
		cpy.Details = maps.Clone(details)
	}
	return &cpy
}

// New builds an AppError.
func New(code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

var (
	ErrUnauthorized       = New("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", "Invalid username or password", http.StatusUnauthorized)
	ErrForbidden          = New("FORBIDDEN", "Admin role required", http.StatusForbidden)
	ErrNotFound           = New("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrBadRequest         = New("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	ErrValidation         = New("VALIDATION_FAILED", "Request validation failed", http.StatusBadRequest)
	ErrRateLimit          = New("RATE_LIMIT_EXCEEDED", "Too many requests, please slow down", http.StatusTooManyRequests)
	ErrInternalServer     = New("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
)

// FromError returns err as an AppError. Anything else becomes
// ErrInternalServer with err attached.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.WithInternal(err)
}

// NewBadRequest returns a BAD_REQUEST error with a custom message.
func NewBadRequest(message string) *AppError {
	return New(ErrBadRequest.Code, message, ErrBadRequest.StatusCode)
}

// NewNotFound returns a NOT_FOUND error with a custom message.
func NewNotFound(message string) *AppError {
	return New(ErrNotFound.Code, message, ErrNotFound.StatusCode)
}
