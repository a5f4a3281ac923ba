package services

import (
	"context"
	"strings"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
	// maxPageNumber keeps offset() far from int overflow.
	maxPageNumber   = 100000
)

// Page selects a window of results. Zero values fall back to page 1 and the
// default page size.
type Page struct {
	Number int
	Size   int
}

// Normalise applies defaults and the page size cap.
func (p Page) Normalise() Page {
	if p.Number <= 0 {
		p.Number = 1
	}
	if p.Number > maxPageNumber {
		p.Number = maxPageNumber
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func truncate(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

// containsPattern builds a lower-cased LIKE pattern; pair it with LOWER(column).
func containsPattern(value string) string {
	return "%" + strings.ToLower(strings.TrimSpace(value)) + "%"
}

// startOfDay returns midnight of t's calendar day in loc, expressed in UTC.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
