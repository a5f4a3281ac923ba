package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/pkg/mail"
	"github.com/mellystark/visitormanagement/pkg/qrcode"
)

const (
	credentialMailSubject = "Visitor QR Kodunuz"
	credentialContentID   = "qrcode"
)

var credentialMailTemplate = template.Must(template.New("credential").Parse(`<html>
<body>
<p>Merhaba {{.FullName}},<br/>Aşağıda giriş için kullanabileceğiniz QR kodunuz bulunmaktadır.</p>
<p><b>Sizin QR Kodunuz:</b></p>
<img src="cid:{{.ContentID}}" alt="QR" />
</body>
</html>`))

// CredentialService renders visitor credentials and delivers them by mail.
type CredentialService struct {
	visitors *VisitorService
	encoder  *qrcode.Encoder
	mailer   mail.Mailer
	from     string
}

// NewCredentialService constructs a CredentialService. mailer may be nil, in
// which case SendByEmail reports ErrMailDisabled.
func NewCredentialService(visitors *VisitorService, encoder *qrcode.Encoder, mailer mail.Mailer, from string) (*CredentialService, error) {
	if visitors == nil {
		return nil, errors.New("credential service: visitor service is required")
	}
	if encoder == nil {
		encoder = qrcode.NewEncoder(qrcode.DefaultSize)
	}
	return &CredentialService{visitors: visitors, encoder: encoder, mailer: mailer, from: from}, nil
}

// QRCode returns the PNG rendering of the visitor's credential token.
func (s *CredentialService) QRCode(ctx context.Context, visitorID uint) ([]byte, *models.Visitor, error) {
	visitor, err := s.visitors.Get(ctx, visitorID)
	if err != nil {
		return nil, nil, err
	}
	png, err := s.encoder.PNG(visitor.CredentialToken)
	if err != nil {
		return nil, nil, fmt.Errorf("credential service: render qr: %w", err)
	}
	return png, visitor, nil
}

// SendByEmail mails the credential QR code inline to the visitor's address.
func (s *CredentialService) SendByEmail(ctx context.Context, visitorID uint) error {
	png, visitor, err := s.QRCode(ctx, visitorID)
	if err != nil {
		return err
	}
	if visitor.Email == "" {
		return ErrVisitorEmailMissing
	}
	if s.mailer == nil {
		return ErrMailDisabled.WithInternal(mail.ErrSMTPDisabled)
	}

	var body bytes.Buffer
	if err := credentialMailTemplate.Execute(&body, map[string]string{
		"FullName":  visitor.FullName,
		"ContentID": credentialContentID,
	}); err != nil {
		return fmt.Errorf("credential service: render mail: %w", err)
	}

	msg := mail.Message{
		From:    s.from,
		To:      []string{visitor.Email},
		Subject: credentialMailSubject,
		HTML:    body.String(),
		Inline: []mail.Inline{{
			ContentID:   credentialContentID,
			Filename:    "qrcode.png",
			ContentType: "image/png",
			Data:        png,
		}},
	}
	if err := s.mailer.Send(ensureContext(ctx), msg); err != nil {
		if errors.Is(err, mail.ErrSMTPDisabled) {
			return ErrMailDisabled.WithInternal(err)
		}
		return fmt.Errorf("credential service: send mail: %w", err)
	}
	return nil
}
