package handlers_test

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mellystark/visitormanagement/internal/handlers/testutil"
	"github.com/mellystark/visitormanagement/pkg/export"
)

func TestVisitorCRUD(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.AdminToken()

	visitor := createVisitor(t, env, token, map[string]any{
		"fullName":    "Barbara Liskov",
		"email":       "barbara@example.com",
		"phoneNumber": "+1 555 0100",
	})

	resp := env.Request(http.MethodGet, "/api/visitors/"+uintPath(visitor.ID), nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodPut, "/api/visitors/"+uintPath(visitor.ID), map[string]any{
		"fullName":    "Barbara H. Liskov",
		"email":       "barbara@example.com",
		"phoneNumber": "+1 555 0100",
	}, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var updated visitorPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &updated)
	require.Equal(t, "Barbara H. Liskov", updated.FullName)
	require.Equal(t, visitor.CredentialToken, updated.CredentialToken)

	resp = env.Request(http.MethodGet, "/api/visitors", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var all []visitorPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &all)
	require.Len(t, all, 1)

	resp = env.Request(http.MethodDelete, "/api/visitors/"+uintPath(visitor.ID), nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodGet, "/api/visitors/"+uintPath(visitor.ID), nil, token)
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
}

func TestVisitorValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.AdminToken()

	resp := env.Request(http.MethodPost, "/api/visitors", map[string]any{"email": "not-an-email"}, token)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	body := testutil.DecodeResponse(t, resp)
	require.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	require.Contains(t, body.Error.Details, "fullName")
	require.Contains(t, body.Error.Details, "email")

	resp = env.Request(http.MethodGet, "/api/visitors/abc", nil, token)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestVisitorFilterPaginates(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.AdminToken()

	for _, name := range []string{"Ada One", "Ada Two", "Ada Three", "Bob"} {
		createVisitor(t, env, token, map[string]any{"fullName": name})
	}

	resp := env.Request(http.MethodGet, "/api/visitors/filter?fullName=ada&page=1&pageSize=2", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := testutil.DecodeResponse(t, resp)
	require.NotNil(t, body.Meta)
	require.EqualValues(t, 3, body.Meta.Total)
	require.Equal(t, 2, body.Meta.PerPage)
	require.Equal(t, 2, body.Meta.TotalPages)

	var page []visitorPayload
	testutil.DecodeInto(t, body.Data, &page)
	require.Len(t, page, 2)

	resp = env.Request(http.MethodGet, "/api/visitors/filter?startDate=yesterday", nil, token)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestVisitorExports(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.AdminToken()
	createVisitor(t, env, token, map[string]any{"fullName": "Ken Thompson"})

	resp := env.Request(http.MethodGet, "/api/visitors/export-csv", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Equal(t, export.ContentTypeCSV, resp.Header().Get("Content-Type"))
	require.Contains(t, resp.Header().Get("Content-Disposition"), "Visitors_")
	require.Contains(t, resp.Body.String(), "Ken Thompson")

	resp = env.Request(http.MethodGet, "/api/visitors/export-excel", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Equal(t, export.ContentTypeXLSX, resp.Header().Get("Content-Type"))
	require.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("PK")))
}

func TestVisitorQRCodeAndEmail(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.AdminToken()

	withMail := createVisitor(t, env, token, map[string]any{"fullName": "Rob Pike", "email": "rob@example.com"})
	withoutMail := createVisitor(t, env, token, map[string]any{"fullName": "No Mail"})

	resp := env.Request(http.MethodGet, "/api/visitors/"+uintPath(withMail.ID)+"/qrcode", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Equal(t, "image/png", resp.Header().Get("Content-Type"))
	require.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("\x89PNG")))

	resp = env.Request(http.MethodPost, "/api/visitors/"+uintPath(withMail.ID)+"/send-qrcode-email", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	messages := env.Mailer.Messages()
	require.Len(t, messages, 1)
	require.Equal(t, []string{"rob@example.com"}, messages[0].To)
	require.Len(t, messages[0].Inline, 1)

	resp = env.Request(http.MethodPost, "/api/visitors/"+uintPath(withoutMail.ID)+"/send-qrcode-email", nil, token)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	require.Len(t, env.Mailer.Messages(), 1)
}
