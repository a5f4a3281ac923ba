package database

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Visitor names are free text in any script, so the connection is utf8mb4
// with a unicode collation.
var mysqlDefaults = map[string]string{
	"charset":   "utf8mb4",
	"collation": "utf8mb4_unicode_ci",
	"parseTime": "True",
	"loc":       "UTC",
}

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), gormConfig(cfg))
}

func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("mysql configuration requires user and database name")
	}

	credentials := cfg.User
	if cfg.Password != "" {
		credentials += ":" + cfg.Password
	}

	query := make([]string, 0, len(mysqlDefaults)+len(cfg.Options))
	for _, kv := range mergeOptions(mysqlDefaults, cfg.Options) {
		query = append(query, kv[0]+"="+kv[1])
	}

	return fmt.Sprintf("%s@tcp(%s:%d)/%s?%s",
		credentials,
		defaultString(cfg.Host, "127.0.0.1"),
		defaultPort(cfg.Port, 3306),
		cfg.Name,
		strings.Join(query, "&"),
	), nil
}

// mergeOptions overlays overrides on defaults and returns the pairs sorted by
// key so generated DSNs are stable.
func mergeOptions(defaults, overrides map[string]string) [][2]string {
	merged := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([][2]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, [2]string{k, merged[k]})
	}
	return pairs
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func defaultPort(port, fallback int) int {
	if port <= 0 {
		return fallback
	}
	return port
}
