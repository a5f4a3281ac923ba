package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mellystark/visitormanagement/pkg/crypto"
)

const jwtSecretBytes = 48

// ApplyRuntimeDefaults fills settings that must never be empty at runtime.
// The returned set names generated secrets so callers can warn without
// logging the values.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	generated := make(map[string]bool)
	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := crypto.GenerateToken(jwtSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		generated["auth.jwt.secret"] = true
	}

	if strings.TrimSpace(cfg.Auth.JWT.Issuer) == "" {
		cfg.Auth.JWT.Issuer = serviceName
	}
	return generated, nil
}
