package app

import (
	"strings"

	"github.com/mellystark/visitormanagement/internal/cache"
	"github.com/mellystark/visitormanagement/pkg/mail"
)

// RedisClientConfig returns the settings used for the realtime bridge, the
// rate limit store and the readiness probe.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  strings.TrimSpace(c.Redis.Address),
		Username: strings.TrimSpace(c.Redis.Username),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}

// SMTPSettings returns the mailer settings for credential emails. A missing
// sender falls back to the SMTP login when that looks like an address.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	from := strings.TrimSpace(c.SMTP.From)
	if from == "" && strings.Contains(c.SMTP.Username, "@") {
		from = strings.TrimSpace(c.SMTP.Username)
	}
	return mail.SMTPSettings{
		Enabled:  c.SMTP.Enabled,
		Host:     strings.TrimSpace(c.SMTP.Host),
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     from,
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}
