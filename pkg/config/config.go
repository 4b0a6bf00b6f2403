// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Counter backends
const (
	CounterBackendFile     = "file"
	CounterBackendRedis    = "redis"
	CounterBackendPostgres = "postgres"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Cleaning CleaningConfig
	Catalog  CatalogConfig
	Counter  CounterConfig

	// Optional database connections; nil when not configured
	Snowflake *SnowflakeConfig
	Postgres  *PostgresConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	ListenAddr     string
	SessionTTL     time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
	AllowedOrigins []string
}

// CleaningConfig holds the default stage toggles and dashboard settings
type CleaningConfig struct {
	HandleMissing    bool
	RemoveDuplicates bool
	StandardizeText  bool
	FixTypes         bool
	AuditRuns        bool // Record runs in postgres when it is configured
	MaxCategories    int
	DefaultTimezone  string
}

// CatalogConfig locates the project catalog and sets its page sizes
type CatalogConfig struct {
	Path          string
	PageSize      int
	PageIncrement int
}

// CounterConfig selects where the visit count lives
type CounterConfig struct {
	Backend       string
	FilePath      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
	PostgresName  string
}

// LoadConfig loads configuration from environment variables, after merging the
// given env files (".env" when none are named). Missing env files are ignored.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
			SessionTTL:     time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 30)) * time.Minute,
			ReadTimeout:    time.Duration(getEnvAsInt("HTTP_READ_TIMEOUT_SECONDS", 30)) * time.Second,
			WriteTimeout:   time.Duration(getEnvAsInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)) * time.Second,
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_MB", 50)) << 20,
			AllowedOrigins: getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Cleaning: CleaningConfig{
			HandleMissing:    getEnvAsBool("CLEAN_HANDLE_MISSING", true),
			RemoveDuplicates: getEnvAsBool("CLEAN_REMOVE_DUPLICATES", true),
			StandardizeText:  getEnvAsBool("CLEAN_STANDARDIZE_TEXT", true),
			FixTypes:         getEnvAsBool("CLEAN_FIX_TYPES", true),
			AuditRuns:        getEnvAsBool("CLEAN_AUDIT_RUNS", true),
			MaxCategories:    getEnvAsInt("INSIGHTS_MAX_CATEGORIES", 20),
			DefaultTimezone:  getEnv("DEFAULT_TIMEZONE", "UTC"),
		},
		Catalog: CatalogConfig{
			Path:          getEnv("CATALOG_PATH", "projects.json"),
			PageSize:      getEnvAsInt("PAGE_SIZE", 9),
			PageIncrement: getEnvAsInt("PAGE_INCREMENT", 9),
		},
		Counter: CounterConfig{
			Backend:       strings.ToLower(getEnv("COUNTER_BACKEND", CounterBackendFile)),
			FilePath:      getEnv("COUNTER_FILE", "visits.txt"),
			RedisAddr:     fmt.Sprintf("%s:%s", getEnv("REDIS_HOST", "localhost"), getEnv("REDIS_PORT", "6379")),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			RedisKey:      getEnv("REDIS_COUNTER_KEY", "datawizard:visits"),
			PostgresName:  getEnv("POSTGRES_COUNTER_NAME", "visits"),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Load database configurations
	snowConfig, err := LoadSnowflakeConfig()
	if err != nil && !errors.Is(err, ErrNotConfigured) {
		return nil, fmt.Errorf("failed to load Snowflake configuration: %w", err)
	}
	cfg.Snowflake = snowConfig

	pgConfig, err := LoadPostgresConfig()
	if err != nil && !errors.Is(err, ErrNotConfigured) {
		return nil, fmt.Errorf("failed to load PostgreSQL configuration: %w", err)
	}
	cfg.Postgres = pgConfig

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return errors.New("listen address is required")
	}

	if c.Server.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}

	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("max upload size must be positive")
	}

	if c.Catalog.PageSize <= 0 || c.Catalog.PageIncrement <= 0 {
		return errors.New("page size and page increment must be positive")
	}

	if _, err := time.LoadLocation(c.Cleaning.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid default timezone %q: %w", c.Cleaning.DefaultTimezone, err)
	}

	switch c.Counter.Backend {
	case CounterBackendFile:
		if c.Counter.FilePath == "" {
			return errors.New("counter file path is required for the file backend")
		}
	case CounterBackendRedis:
		if c.Counter.RedisAddr == "" {
			return errors.New("redis address is required for the redis backend")
		}
	case CounterBackendPostgres:
		if c.Postgres == nil {
			return errors.New("postgreSQL configuration is required for the postgres counter backend")
		}
	default:
		return fmt.Errorf("unknown counter backend %q", c.Counter.Backend)
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("log format must be json or console, got %q", c.LogFormat)
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsStringSlice parses a comma-separated list
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.Trim(strings.TrimSpace(v), `"`); v != "" {
			result = append(result, v)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}
