package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/snowflakedb/gosnowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the loader reads, restoring them after the test
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"LISTEN_ADDR", "SESSION_TTL_MINUTES", "MAX_UPLOAD_MB", "CORS_ALLOWED_ORIGINS",
		"CLEAN_HANDLE_MISSING", "CLEAN_REMOVE_DUPLICATES", "CLEAN_STANDARDIZE_TEXT", "CLEAN_FIX_TYPES",
		"DEFAULT_TIMEZONE", "CATALOG_PATH", "PAGE_SIZE", "PAGE_INCREMENT",
		"COUNTER_BACKEND", "COUNTER_FILE", "REDIS_HOST", "REDIS_PORT", "REDIS_DB",
		"SNOWFLAKE_USER", "SNOWFLAKE_PASSWORD", "SNOWFLAKE_ACCOUNT", "SNOWFLAKE_WAREHOUSE",
		"SNOWFLAKE_AUTHENTICATOR", "SNOWFLAKE_ROLE",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_PORT",
		"LOG_LEVEL", "LOG_FORMAT",
	}
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, int64(50<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Cleaning.HandleMissing)
	assert.True(t, cfg.Cleaning.FixTypes)
	assert.Equal(t, 9, cfg.Catalog.PageSize)
	assert.Equal(t, CounterBackendFile, cfg.Counter.Backend)
	assert.Equal(t, "localhost:6379", cfg.Counter.RedisAddr)
	assert.Nil(t, cfg.Postgres)
	assert.Nil(t, cfg.Snowflake)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"PAGE_SIZE=3\nCLEAN_FIX_TYPES=false\nCORS_ALLOWED_ORIGINS=https://a.example, \"https://b.example\"\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Catalog.PageSize)
	assert.False(t, cfg.Cleaning.FixTypes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfigDatabases(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_USER", "wizard")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "datawizard")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("SNOWFLAKE_USER", "u")
	t.Setenv("SNOWFLAKE_PASSWORD", "p")
	t.Setenv("SNOWFLAKE_ACCOUNT", "acct")
	t.Setenv("SNOWFLAKE_WAREHOUSE", "wh")
	t.Setenv("SNOWFLAKE_AUTHENTICATOR", "jwt")
	t.Setenv("SNOWFLAKE_ROLE", "ANALYST")
	t.Setenv("COUNTER_BACKEND", "Postgres")

	cfg, err := LoadConfig(noEnvFile(t))
	require.NoError(t, err)

	require.NotNil(t, cfg.Postgres)
	assert.Equal(t, "host=localhost port=6543 user=wizard password=secret dbname=datawizard sslmode=disable",
		cfg.Postgres.ConnectionString())

	require.NotNil(t, cfg.Snowflake)
	assert.Equal(t, gosnowflake.AuthTypeJwt, cfg.Snowflake.Authenticator)
	assert.Contains(t, cfg.Snowflake.ConnectionString(), "u:p@acct/ANALYTICS/PUBLIC?warehouse=wh")
	assert.Contains(t, cfg.Snowflake.ConnectionString(), "&role=ANALYST")
	assert.Equal(t, CounterBackendPostgres, cfg.Counter.Backend)
}

func TestPartialDatabaseConfigFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_USER", "wizard")

	_, err := LoadConfig(noEnvFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_PASSWORD")
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base, err := LoadConfig(noEnvFile(t))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no listen address", func(c *Config) { c.Server.ListenAddr = "" }},
		{"zero ttl", func(c *Config) { c.Server.SessionTTL = 0 }},
		{"zero page size", func(c *Config) { c.Catalog.PageSize = 0 }},
		{"bad timezone", func(c *Config) { c.Cleaning.DefaultTimezone = "Mars/Olympus" }},
		{"unknown backend", func(c *Config) { c.Counter.Backend = "etcd" }},
		{"postgres backend without postgres", func(c *Config) { c.Counter.Backend = CounterBackendPostgres }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("DW_TEST_INT", "abc")
	assert.Equal(t, 7, getEnvAsInt("DW_TEST_INT", 7))
	t.Setenv("DW_TEST_BOOL", "no")
	assert.True(t, getEnvAsBool("DW_TEST_BOOL", true))
	t.Setenv("DW_TEST_BOOL", "0")
	assert.False(t, getEnvAsBool("DW_TEST_BOOL", true))
	t.Setenv("DW_TEST_LIST", " , ")
	assert.Equal(t, []string{"x"}, getEnvAsStringSlice("DW_TEST_LIST", []string{"x"}))
}
