package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mellystark/visitormanagement/internal/handlers/testutil"
)

type logRowPayload struct {
	ID          uint       `json:"id"`
	VisitorID   uint       `json:"visitorId"`
	VisitorName string     `json:"visitorName"`
	ExitTime    *time.Time `json:"exitTime"`
}

func TestLogListingAndManualExit(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.AdminToken()

	grace := createVisitor(t, env, token, map[string]any{"fullName": "Grace", "phoneNumber": "5551234"})
	alan := createVisitor(t, env, token, map[string]any{"fullName": "Alan", "phoneNumber": "5559876"})

	_, graceEntry := scan(t, env, grace.CredentialToken)
	scan(t, env, alan.CredentialToken)
	scan(t, env, alan.CredentialToken)

	resp := env.Request(http.MethodGet, "/api/logs/all?onlyNotExited=true", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := testutil.DecodeResponse(t, resp)
	var rows []logRowPayload
	testutil.DecodeInto(t, body.Data, &rows)
	require.Len(t, rows, 1)
	require.Equal(t, "Grace", rows[0].VisitorName)
	require.EqualValues(t, 1, body.Meta.Total)
	require.Equal(t, 20, body.Meta.PerPage)

	today := time.Now().UTC().Format("2006-01-02")
	resp = env.Request(http.MethodGet, "/api/logs/all?phoneNumber=9876&startDate="+today+"&endDate="+today, nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &rows)
	require.Len(t, rows, 1)
	require.Equal(t, "Alan", rows[0].VisitorName)
	require.NotNil(t, rows[0].ExitTime)

	resp = env.Request(http.MethodPut, "/api/logs/"+uintPath(*graceEntry.LogID)+"/exit", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodPut, "/api/logs/"+uintPath(*graceEntry.LogID)+"/exit", nil, token)
	require.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodPut, "/api/logs/99999/exit", nil, token)
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
}

func TestLogsForVisitor(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.AdminToken()
	visitor := createVisitor(t, env, token, map[string]any{"fullName": "Dennis"})

	resp := env.Request(http.MethodGet, "/api/logs", nil, token)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodGet, "/api/logs?visitorId="+uintPath(visitor.ID), nil, token)
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())

	scan(t, env, visitor.CredentialToken)

	resp = env.Request(http.MethodGet, "/api/logs?visitorId="+uintPath(visitor.ID), nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var rows []logRowPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &rows)
	require.Len(t, rows, 1)
	require.Equal(t, visitor.ID, rows[0].VisitorID)
}

func TestVisitorLogsPrefixAliasesLogs(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.AdminToken()
	visitor := createVisitor(t, env, token, map[string]any{"fullName": "Barbara"})
	scan(t, env, visitor.CredentialToken)

	resp := env.Request(http.MethodGet, "/api/visitorlogs?visitorId="+uintPath(visitor.ID), nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var rows []logRowPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &rows)
	require.Len(t, rows, 1)
	require.Nil(t, rows[0].ExitTime)

	resp = env.Request(http.MethodPut, "/api/visitorlogs/"+uintPath(rows[0].ID)+"/exit", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodPut, "/api/visitorlogs/"+uintPath(rows[0].ID)+"/exit", nil, token)
	require.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodGet, "/api/visitorlogs?visitorId="+uintPath(visitor.ID), nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestVisitorLogReport(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.AdminToken()

	resp := env.Request(http.MethodGet, "/api/reports/visitor-logs", nil, token)
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())

	visitor := createVisitor(t, env, token, map[string]any{"fullName": "Frances"})
	scan(t, env, visitor.CredentialToken)

	resp = env.Request(http.MethodGet, "/api/reports/visitor-logs?visitorId="+uintPath(visitor.ID), nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = env.Request(http.MethodGet, "/api/reports/visitor-logs?startDate=2030-01-02&endDate=2030-01-01", nil, token)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestLogExports(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.AdminToken()
	visitor := createVisitor(t, env, token, map[string]any{"fullName": "Edsger"})
	scan(t, env, visitor.CredentialToken)

	resp := env.Request(http.MethodGet, "/api/logs/export-csv", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Contains(t, resp.Header().Get("Content-Disposition"), "VisitorLogs_")
	require.Contains(t, resp.Body.String(), "Edsger")

	resp = env.Request(http.MethodGet, "/api/logs/export-excel", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}
