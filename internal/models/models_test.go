package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVisitorBeforeCreateMintsToken(t *testing.T) {
	v := &Visitor{FullName: "Ada"}
	require.NoError(t, v.BeforeCreate(nil))
	require.NotEmpty(t, v.CredentialToken)

	other := &Visitor{FullName: "Grace"}
	require.NoError(t, other.BeforeCreate(nil))
	require.NotEqual(t, v.CredentialToken, other.CredentialToken)
}

func TestVisitorBeforeCreateKeepsSuppliedToken(t *testing.T) {
	v := &Visitor{FullName: "Ada", CredentialToken: " fixed-token "}
	require.NoError(t, v.BeforeCreate(nil))
	require.Equal(t, "fixed-token", v.CredentialToken)
}

func TestInviteRequestPendingKeyFollowsStatus(t *testing.T) {
	req := &InviteRequest{Email: " Ada@Example.COM "}
	require.NoError(t, req.BeforeSave(nil))
	require.Equal(t, InviteStatusPending, req.Status)
	require.Equal(t, "ada@example.com", req.Email)
	require.NotNil(t, req.PendingKey)

	req.Status = InviteStatusApproved
	require.NoError(t, req.BeforeSave(nil))
	require.Nil(t, req.PendingKey)

	noEmail := &InviteRequest{Status: InviteStatusPending}
	require.NoError(t, noEmail.BeforeSave(nil))
	require.Nil(t, noEmail.PendingKey)
}

func TestVisitorLogClose(t *testing.T) {
	visitorID := uint(7)
	log := &VisitorLog{VisitorID: visitorID, EntryTime: time.Now(), OpenVisitorID: &visitorID}
	require.True(t, log.IsOpen())

	at := time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC)
	log.Close(at)
	require.False(t, log.IsOpen())
	require.Nil(t, log.OpenVisitorID)
	require.Equal(t, at, *log.ExitTime)
}

func TestInviteStatusValid(t *testing.T) {
	require.True(t, InviteStatusExpired.Valid())
	require.False(t, InviteStatus("Archived").Valid())
}
