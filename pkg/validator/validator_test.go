package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type requestPayload struct {
	FullName    string `json:"fullName" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,phone"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := requestPayload{
		FullName:    "Ada Lovelace",
		Email:       "ada@example.com",
		PhoneNumber: "+90 555 123 45 67",
	}

	require.NoError(t, ValidateStruct(payload))
}

func TestValidateStructFailures(t *testing.T) {
	payload := requestPayload{
		FullName:    "",
		Email:       "invalid",
		PhoneNumber: "call me",
	}

	err := ValidateStruct(payload)
	require.Error(t, err)

	vErrs, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	require.Len(t, vErrs, 3)

	fields, ok := FieldErrors(err)
	require.True(t, ok)
	require.Equal(t, "is required", fields["fullName"])
	require.Equal(t, "must be a valid email address", fields["email"])
	require.Equal(t, "must be a valid phone number", fields["phoneNumber"])
}

func TestSlugRule(t *testing.T) {
	type invitation struct {
		Slug string `json:"slug" validate:"required,max=32,slug"`
	}

	require.NoError(t, ValidateStruct(invitation{Slug: "meetup-2025"}))
	require.Error(t, ValidateStruct(invitation{Slug: "Meetup 2025"}))
	require.Error(t, ValidateStruct(invitation{Slug: "double--dash"}))
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("theme", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "light" || value == "dark"
	})
	require.NoError(t, err)

	type custom struct {
		Value string `validate:"theme"`
	}

	require.NoError(t, ValidateStruct(custom{Value: "dark"}))
	require.Error(t, ValidateStruct(custom{Value: "neon"}))
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	_, ok := FieldErrors(nil)
	require.False(t, ok)
}
