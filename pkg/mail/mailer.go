package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/inbucket/html2text"
	gomail "github.com/wneessen/go-mail"
)

// ErrSMTPDisabled signals that SMTP delivery is disabled via configuration.
var ErrSMTPDisabled = errors.New("smtp: delivery disabled")

// Inline is a related MIME part referenced from the HTML body via cid:ContentID.
type Inline struct {
	ContentID   string
	Filename    string
	ContentType string
	Data        []byte
}

// Message represents an outbound email. Text is derived from HTML when empty.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
	Inline  []Inline
}

// Mailer defines behaviour for sending email messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSettings capture the runtime configuration required by the SMTP mailer.
type SMTPSettings struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
	Timeout  time.Duration
}

type deliverer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

type smtpMailer struct {
	cfg    SMTPSettings
	client deliverer
}

// NewSMTPMailer builds a Mailer backed by go-mail. A disabled configuration
// yields a mailer whose Send always returns ErrSMTPDisabled.
func NewSMTPMailer(cfg SMTPSettings) (Mailer, error) {
	if err := validateSMTPConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if !cfg.Enabled {
		return &smtpMailer{cfg: cfg}, nil
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(cfg.Timeout),
	}
	if cfg.UseTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if strings.TrimSpace(cfg.Username) != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp: new client: %w", err)
	}

	return &smtpMailer{cfg: cfg, client: client}, nil
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Enabled || m.client == nil {
		return ErrSMTPDisabled
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(msg.From) == "" {
		msg.From = m.cfg.From
	}

	built, err := buildMessage(msg)
	if err != nil {
		return err
	}

	if err := m.client.DialAndSendWithContext(ctx, built); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

func buildMessage(msg Message) (*gomail.Msg, error) {
	recipients := uniqueAddresses(msg.To)
	if len(recipients) == 0 {
		return nil, errors.New("smtp: at least one recipient is required")
	}

	from := strings.TrimSpace(msg.From)
	if from == "" {
		return nil, errors.New("smtp: sender address is required")
	}
	if _, err := netmail.ParseAddress(from); err != nil {
		return nil, fmt.Errorf("smtp: invalid from address: %w", err)
	}
	for _, rcpt := range recipients {
		if _, err := netmail.ParseAddress(rcpt); err != nil {
			return nil, fmt.Errorf("smtp: invalid recipient address %q: %w", rcpt, err)
		}
	}

	out := gomail.NewMsg()
	if err := out.From(from); err != nil {
		return nil, fmt.Errorf("smtp: from: %w", err)
	}
	if err := out.To(recipients...); err != nil {
		return nil, fmt.Errorf("smtp: to: %w", err)
	}
	out.Subject(escapeHeader(msg.Subject))

	text := msg.Text
	if text == "" && msg.HTML != "" {
		converted, err := htmlToText(msg.HTML)
		if err != nil {
			return nil, err
		}
		text = converted
	}

	out.SetBodyString(gomail.TypeTextPlain, text)
	if msg.HTML != "" {
		out.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}

	for _, part := range msg.Inline {
		contentType := part.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		name := part.Filename
		if name == "" {
			name = part.ContentID
		}
		if err := out.EmbedReader(name, bytes.NewReader(part.Data),
			gomail.WithFileContentID(part.ContentID),
			gomail.WithFileContentType(gomail.ContentType(contentType)),
		); err != nil {
			return nil, fmt.Errorf("smtp: embed %s: %w", name, err)
		}
	}

	return out, nil
}

func htmlToText(htmlContent string) (string, error) {
	text, err := html2text.FromString(htmlContent, html2text.Options{
		PrettyTables: true,
		OmitLinks:    false,
	})
	if err != nil {
		return "", fmt.Errorf("smtp: html to text: %w", err)
	}
	return text, nil
}

func validateSMTPConfig(cfg SMTPSettings) error {
	if !cfg.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.Host) == "" {
		return errors.New("smtp: host is required when enabled")
	}
	if cfg.Port == 0 {
		return errors.New("smtp: port is required when enabled")
	}
	return nil
}

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	var result []string
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, exists := seen[addr]; exists {
			continue
		}
		seen[addr] = struct{}{}
		result = append(result, addr)
	}
	return result
}

func escapeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return value
}
