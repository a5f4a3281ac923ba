package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mellystark/visitormanagement/pkg/mail"
	"github.com/mellystark/visitormanagement/pkg/qrcode"
)

type recordingMailer struct {
	messages []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

var pngSignature = []byte{0x89, 'P', 'N', 'G'}

func TestCredentialQRCode(t *testing.T) {
	ts := newTestServices(t)
	svc, err := NewCredentialService(ts.visitors, qrcode.NewEncoder(128), nil, "")
	require.NoError(t, err)

	visitor := ts.createVisitor(t, "ada")
	png, got, err := svc.QRCode(context.Background(), visitor.ID)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(png, pngSignature))
	require.Equal(t, visitor.CredentialToken, got.CredentialToken)

	_, _, err = svc.QRCode(context.Background(), 999)
	require.ErrorIs(t, err, ErrVisitorNotFound)
}

func TestCredentialSendByEmail(t *testing.T) {
	ts := newTestServices(t)
	mailer := &recordingMailer{}
	svc, err := NewCredentialService(ts.visitors, nil, mailer, "noreply@example.com")
	require.NoError(t, err)

	visitor := ts.createVisitor(t, "ada")
	require.NoError(t, svc.SendByEmail(context.Background(), visitor.ID))
	require.Len(t, mailer.messages, 1)

	msg := mailer.messages[0]
	require.Equal(t, []string{visitor.Email}, msg.To)
	require.Equal(t, credentialMailSubject, msg.Subject)
	require.Contains(t, msg.HTML, "Merhaba ada")
	require.Contains(t, msg.HTML, "cid:qrcode")
	require.Len(t, msg.Inline, 1)
	require.Equal(t, "qrcode", msg.Inline[0].ContentID)
	require.True(t, bytes.HasPrefix(msg.Inline[0].Data, pngSignature))
}

func TestCredentialSendByEmailRequiresAddressAndMailer(t *testing.T) {
	ts := newTestServices(t)
	visitor, err := ts.visitors.Create(context.Background(), VisitorInput{FullName: "No Mail"}, Actor{})
	require.NoError(t, err)

	svc, err := NewCredentialService(ts.visitors, nil, &recordingMailer{}, "")
	require.NoError(t, err)
	require.ErrorIs(t, svc.SendByEmail(context.Background(), visitor.ID), ErrVisitorEmailMissing)

	withMail := ts.createVisitor(t, "ada")
	disabled, err := NewCredentialService(ts.visitors, nil, nil, "")
	require.NoError(t, err)
	require.ErrorIs(t, disabled.SendByEmail(context.Background(), withMail.ID), mail.ErrSMTPDisabled)
}
