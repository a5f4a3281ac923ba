package handlers_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mellystark/visitormanagement/internal/handlers/testutil"
)

func uintPath(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func createVisitor(t *testing.T, env *testutil.Env, token string, body map[string]any) visitorPayload {
	t.Helper()

	resp := env.Request(http.MethodPost, "/api/visitors", body, token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var visitor visitorPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &visitor)
	require.NotZero(t, visitor.ID)
	require.NotEmpty(t, visitor.CredentialToken)
	return visitor
}
