package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/mellystark/visitormanagement/pkg/errors"
)

func newContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/api/visitors", nil)
	return ctx, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSuccessEnvelope(t *testing.T) {
	ctx, rec := newContext(t)
	Success(ctx, http.StatusCreated, gin.H{"id": 7, "phoneNumber": "05551234567"})

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode(t, rec)
	require.True(t, resp.Success)
	require.Nil(t, resp.Error)
	require.Nil(t, resp.Meta)
	require.Equal(t, "05551234567", resp.Data.(map[string]any)["phoneNumber"])
}

func TestSuccessWithMeta(t *testing.T) {
	ctx, rec := newContext(t)
	SuccessWithMeta(ctx, http.StatusOK, []string{"a", "b"}, NewMeta(1, 2, 5))

	resp := decode(t, rec)
	require.Equal(t, &Meta{Page: 1, PerPage: 2, Total: 5, TotalPages: 3}, resp.Meta)
	require.NotContains(t, rec.Body.String(), `"error"`)
}

func TestErrorEnvelope(t *testing.T) {
	cases := map[string]struct {
		err     error
		status  int
		code    string
		details map[string]string
	}{
		"app error": {
			err:    appErrors.ErrForbidden,
			status: http.StatusForbidden,
			code:   appErrors.ErrForbidden.Code,
		},
		"validation details": {
			err:     appErrors.ErrValidation.WithDetails(map[string]string{"reason": "is required"}),
			status:  http.StatusBadRequest,
			code:    appErrors.ErrValidation.Code,
			details: map[string]string{"reason": "is required"},
		},
		"plain error is hidden": {
			err:    errors.New("pq: relation visitors does not exist"),
			status: http.StatusInternalServerError,
			code:   appErrors.ErrInternalServer.Code,
		},
		"nil": {
			status: http.StatusInternalServerError,
			code:   appErrors.ErrInternalServer.Code,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ctx, rec := newContext(t)
			Error(ctx, tc.err)

			require.Equal(t, tc.status, rec.Code)
			resp := decode(t, rec)
			require.False(t, resp.Success)
			require.Nil(t, resp.Data)
			require.NotNil(t, resp.Error)
			require.Equal(t, tc.code, resp.Error.Code)
			require.Equal(t, tc.details, resp.Error.Details)
			require.NotContains(t, rec.Body.String(), "relation visitors")
		})
	}
}

func TestNewMeta(t *testing.T) {
	require.Equal(t, 3, NewMeta(2, 20, 41).TotalPages)
	require.Equal(t, 0, NewMeta(1, 20, 0).TotalPages)
	require.Zero(t, NewMeta(1, 0, 5).TotalPages)
}
