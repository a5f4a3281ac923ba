package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Ledger timestamps are stored and compared in UTC; the session time zone is
// pinned so server defaults cannot shift "today" boundaries.
var postgresDefaults = map[string]string{
	"sslmode":          "disable",
	"TimeZone":         "UTC",
	"application_name": "visitor-management",
}

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), gormConfig(cfg))
}

func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres configuration requires user and database name")
	}

	params := []string{
		"host=" + defaultString(cfg.Host, "localhost"),
		fmt.Sprintf("port=%d", defaultPort(cfg.Port, 5432)),
		"user=" + cfg.User,
		"dbname=" + cfg.Name,
	}
	if cfg.Password != "" {
		params = append(params, "password="+cfg.Password)
	}
	for _, kv := range mergeOptions(postgresDefaults, cfg.Options) {
		params = append(params, kv[0]+"="+kv[1])
	}
	return strings.Join(params, " "), nil
}
