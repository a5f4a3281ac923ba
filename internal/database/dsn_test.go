package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "visitors", Name: "visitors"})
	require.NoError(t, err)
	require.Equal(t,
		"host=localhost port=5432 user=visitors dbname=visitors TimeZone=UTC application_name=visitor-management sslmode=disable",
		dsn,
	)
}

func TestBuildPostgresDSNOverridesDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: "pass",
		Options: map[string]string{
			"sslmode":     "require",
			"search_path": "public",
		},
	})
	require.NoError(t, err)

	for _, part := range []string{"host=db.example.com", "port=6543", "password=pass", "sslmode=require", "search_path=public"} {
		require.Contains(t, dsn, part)
	}
	require.NotContains(t, dsn, "sslmode=disable")
}

func TestBuildPostgresDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{})
	require.Error(t, err)
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "visitors", Name: "visitors"})
	require.NoError(t, err)
	require.Equal(t,
		"visitors@tcp(127.0.0.1:3306)/visitors?charset=utf8mb4&collation=utf8mb4_unicode_ci&loc=UTC&parseTime=True",
		dsn,
	)
}

func TestBuildMySQLDSNWithOptions(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "user",
		Password: "secret",
		Name:     "db",
		Host:     "db.example.com",
		Port:     3307,
		Options:  map[string]string{"tls": "skip-verify"},
	})
	require.NoError(t, err)
	require.Contains(t, dsn, "user:secret@tcp(db.example.com:3307)/db?")
	require.Contains(t, dsn, "tls=skip-verify")
	require.Contains(t, dsn, "parseTime=True")
}

func TestBuildMySQLDSNRequiresUserAndName(t *testing.T) {
	_, err := buildMySQLDSN(Config{Host: "localhost"})
	require.Error(t, err)
}

func TestBuildSQLiteDSN(t *testing.T) {
	dsn, err := buildSQLiteDSN(Config{Path: ":memory:"})
	require.NoError(t, err)
	require.Equal(t, "file::memory:?cache=shared&_foreign_keys=1", dsn)

	path := filepath.Join(t.TempDir(), "nested", "visitors.sqlite")
	dsn, err = buildSQLiteDSN(Config{Path: path})
	require.NoError(t, err)
	require.Equal(t, "file:"+filepath.ToSlash(path)+"?"+sqliteFileParams, dsn)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	require.True(t, info.IsDir())

	dsn, err = buildSQLiteDSN(Config{DSN: "file:custom.db", Path: path})
	require.NoError(t, err)
	require.Equal(t, "file:custom.db", dsn)
}
