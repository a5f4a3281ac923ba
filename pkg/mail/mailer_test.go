package mail

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

type recordingDeliverer struct {
	sent []*gomail.Msg
	err  error
}

func (r *recordingDeliverer) DialAndSendWithContext(_ context.Context, messages ...*gomail.Msg) error {
	r.sent = append(r.sent, messages...)
	return r.err
}

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "host is required")

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "port is required")

	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, mailer)
}

func TestSMTPMailerSendDisabled(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), Message{
		To:      []string{"test@example.com"},
		Subject: "Test",
		HTML:    "<p>Hello</p>",
	})
	require.ErrorIs(t, err, ErrSMTPDisabled)
}

func TestSendUsesConfiguredSender(t *testing.T) {
	rec := &recordingDeliverer{}
	mailer := &smtpMailer{cfg: SMTPSettings{Enabled: true, From: "noreply@example.com"}, client: rec}

	err := mailer.Send(context.Background(), Message{
		To:      []string{"ada@example.com", "ada@example.com"},
		Subject: "Your entry code",
		HTML:    "<p>Hello Ada</p><img src=\"cid:qrcode\">",
		Inline: []Inline{{
			ContentID:   "qrcode",
			Filename:    "qrcode.png",
			ContentType: "image/png",
			Data:        []byte{0x89, 'P', 'N', 'G'},
		}},
	})
	require.NoError(t, err)
	require.Len(t, rec.sent, 1)

	var buf bytes.Buffer
	_, err = rec.sent[0].WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	require.Contains(t, raw, "noreply@example.com")
	require.Contains(t, raw, "Your entry code")
	require.Contains(t, raw, "Hello Ada")
	require.Contains(t, strings.ToLower(raw), "content-id:")
	require.Contains(t, raw, "qrcode")
}

func TestSendWrapsDeliveryError(t *testing.T) {
	rec := &recordingDeliverer{err: errors.New("connection refused")}
	mailer := &smtpMailer{cfg: SMTPSettings{Enabled: true, From: "noreply@example.com"}, client: rec}

	err := mailer.Send(context.Background(), Message{To: []string{"ada@example.com"}, Text: "hi"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")
}

func TestBuildMessageRejectsInvalidAddresses(t *testing.T) {
	_, err := buildMessage(Message{From: "noreply@example.com"})
	require.Error(t, err)

	_, err = buildMessage(Message{From: "not an address", To: []string{"ada@example.com"}})
	require.Error(t, err)

	_, err = buildMessage(Message{From: "noreply@example.com", To: []string{"broken"}})
	require.Error(t, err)
}

func TestEscapeHeader(t *testing.T) {
	require.Equal(t, "Subject  Break", escapeHeader("Subject\r\nBreak"))
}
