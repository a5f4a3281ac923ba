package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/internal/realtime"
	apperrors "github.com/mellystark/visitormanagement/pkg/errors"
)

func TestVisitorCreateMintsUniqueToken(t *testing.T) {
	ts := newTestServices(t)

	a := ts.createVisitor(t, "ada")
	b := ts.createVisitor(t, "grace")
	require.NotEmpty(t, a.CredentialToken)
	require.NotEqual(t, a.CredentialToken, b.CredentialToken)
	require.Contains(t, ts.publisher.events(realtime.StreamNotifications), realtime.EventVisitorAdded)
}

func TestVisitorCreateRequiresName(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.visitors.Create(context.Background(), VisitorInput{FullName: "  "}, Actor{})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	appErr := apperrors.FromError(err)
	require.Equal(t, "is required", appErr.Details["fullName"])
}

func TestVisitorCreateWithUnknownInvitation(t *testing.T) {
	ts := newTestServices(t)
	missing := uint(42)

	_, err := ts.visitors.Create(context.Background(), VisitorInput{FullName: "Ada", InvitationID: &missing}, Actor{})
	require.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestVisitorUpdateKeepsToken(t *testing.T) {
	ts := newTestServices(t)
	visitor := ts.createVisitor(t, "ada")

	updated, err := ts.visitors.Update(context.Background(), visitor.ID, VisitorInput{
		FullName:    "Ada King",
		Email:       "ada@king.example",
		PhoneNumber: "555-0111",
		Notes:       "vip",
	}, Actor{})
	require.NoError(t, err)
	require.Equal(t, "Ada King", updated.FullName)
	require.Equal(t, "vip", updated.Notes)
	require.Equal(t, visitor.CredentialToken, updated.CredentialToken)

	_, err = ts.visitors.Update(context.Background(), 999, VisitorInput{FullName: "x"}, Actor{})
	require.ErrorIs(t, err, ErrVisitorNotFound)
}

func TestVisitorDeleteCascadesLogs(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	visitor := ts.createVisitor(t, "ada")

	_, err := ts.ledger.Scan(ctx, ScanInput{Token: visitor.CredentialToken})
	require.NoError(t, err)

	require.NoError(t, ts.visitors.Delete(ctx, visitor.ID, Actor{}))

	var logs int64
	require.NoError(t, ts.db.Model(&models.VisitorLog{}).Where("visitor_id = ?", visitor.ID).Count(&logs).Error)
	require.Zero(t, logs)

	_, err = ts.visitors.Get(ctx, visitor.ID)
	require.ErrorIs(t, err, ErrVisitorNotFound)

	require.ErrorIs(t, ts.visitors.Delete(ctx, visitor.ID, Actor{}), ErrVisitorNotFound)
	require.Contains(t, ts.publisher.events(realtime.StreamNotifications), realtime.EventVisitorDeleted)
}

func TestVisitorFilter(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	ada := ts.createVisitor(t, "Ada")
	ts.createVisitor(t, "Grace")
	ts.createVisitor(t, "Adam")

	_, err := ts.ledger.Scan(ctx, ScanInput{Token: ada.CredentialToken})
	require.NoError(t, err)

	visitors, total, err := ts.visitors.Filter(ctx, VisitorFilter{FullName: "ADA"}, Page{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, "Ada", visitors[0].FullName)
	require.Equal(t, "Adam", visitors[1].FullName)

	visitors, total, err = ts.visitors.Filter(ctx, VisitorFilter{OnlyNotExited: true}, Page{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, ada.ID, visitors[0].ID)

	start := time.Now().Add(-time.Hour)
	_, total, err = ts.visitors.Filter(ctx, VisitorFilter{Range: DateRange{Start: &start}}, Page{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	visitors, total, err = ts.visitors.Filter(ctx, VisitorFilter{}, Page{Number: 1, Size: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, visitors, 2)
}
