package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/services"
	appErrors "github.com/mellystark/visitormanagement/pkg/errors"
	"github.com/mellystark/visitormanagement/pkg/response"
	appValidator "github.com/mellystark/visitormanagement/pkg/validator"
)

const dateOnlyLayout = "2006-01-02"

// normalizer is implemented by payloads that clean up their fields (trim
// whitespace) before validation rules run.
type normalizer interface {
	normalize()
}

// bindAndValidate binds the JSON payload into dest, normalises it and runs
// struct validation rules. When validation fails, an error response is
// automatically written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	if n, ok := any(dest).(normalizer); ok {
		n.normalize()
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		if fields, ok := appValidator.FieldErrors(err); ok {
			response.Error(c, appErrors.ErrValidation.WithDetails(fields))
		} else {
			response.Error(c, appErrors.NewBadRequest("invalid request payload"))
		}
		return false
	}

	return true
}

// parseIDParam reads a positive numeric path parameter. It writes a 400
// response and returns false when the value is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.Error(c, appErrors.ErrValidation.WithDetails(map[string]string{name: "must be a positive integer"}))
		return 0, false
	}
	return uint(id), true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseUintQuery(c *gin.Context, key string) uint {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return uint(parsed)
}

func parseBoolQuery(c *gin.Context, key string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && parsed
}

// parseDateRange reads startDate and endDate. Both accept RFC 3339 or a bare
// date; a bare endDate covers the whole day. Malformed values write a 400.
func parseDateRange(c *gin.Context) (services.DateRange, bool) {
	var dates services.DateRange

	start, ok := parseDateQuery(c, "startDate", false)
	if !ok {
		return dates, false
	}
	end, ok := parseDateQuery(c, "endDate", true)
	if !ok {
		return dates, false
	}
	if start != nil && end != nil && end.Before(*start) {
		response.Error(c, appErrors.ErrValidation.WithDetails(map[string]string{"endDate": "must not be before startDate"}))
		return dates, false
	}

	dates.Start, dates.End = start, end
	return dates, true
}

func parseDateQuery(c *gin.Context, key string, endOfDay bool) (*time.Time, bool) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, true
	}
	if t, err := time.Parse(dateOnlyLayout, value); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, true
	}
	response.Error(c, appErrors.ErrValidation.WithDetails(map[string]string{key: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"}))
	return nil, false
}

// pageFromQuery reads page and pageSize with the given default size.
func pageFromQuery(c *gin.Context, defaultSize int) services.Page {
	return services.Page{
		Number: parseIntQuery(c, "page", 1),
		Size:   parseIntQuery(c, "pageSize", defaultSize),
	}.Normalise()
}

func respondPage(c *gin.Context, data any, page services.Page, total int64) {
	response.SuccessWithMeta(c, 200, data, response.NewMeta(page.Number, page.Size, total))
}
