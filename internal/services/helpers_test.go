package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPageNormalise(t *testing.T) {
	p := Page{}.Normalise()
	require.Equal(t, 1, p.Number)
	require.Equal(t, defaultPageSize, p.Size)
	require.Equal(t, 0, p.offset())

	p = Page{Number: 3, Size: 1000}.Normalise()
	require.Equal(t, maxPageSize, p.Size)
	require.Equal(t, 2*maxPageSize, p.offset())

	p = Page{Number: int(^uint(0) >> 1), Size: maxPageSize}.Normalise()
	require.Equal(t, maxPageNumber, p.Number)
	require.Equal(t, (maxPageNumber-1)*maxPageSize, p.offset())
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	at := time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC)

	require.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), startOfDay(at, nil))
	require.Equal(t, time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC), startOfDay(at, loc))
}

func TestTruncateCountsRunes(t *testing.T) {
	require.Equal(t, "çı", truncate("çıkış", 2))
	require.Equal(t, "abc", truncate("abc", 10))
}

func TestIsUniqueConstraintError(t *testing.T) {
	require.False(t, isUniqueConstraintError(nil))
	require.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: visitors.credential_token")))
	require.True(t, isUniqueConstraintError(errors.New("Error 1062: Duplicate entry 'x' for key 'slug'")))
	require.False(t, isUniqueConstraintError(errors.New("connection refused")))
}
