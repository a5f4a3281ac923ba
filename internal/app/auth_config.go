package app

import (
	"strings"

	"github.com/mellystark/visitormanagement/internal/auth"
	"github.com/mellystark/visitormanagement/internal/database"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// AdminSeed converts the admin settings into seed options. Blank values fall
// back to the database package defaults.
func (c AuthConfig) AdminSeed() database.SeedOptions {
	return database.SeedOptions{
		AdminUsername: strings.TrimSpace(c.Admin.Username),
		AdminEmail:    strings.TrimSpace(c.Admin.Email),
		AdminPassword: c.Admin.Password,
	}
}
