// pkg/connector/snowflake.go
package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/config"
	"github.com/David-Botos/datawizard/pkg/converter"
	"github.com/David-Botos/datawizard/pkg/model"
)

// SnowflakeConnector implements the DatabaseConnector interface for Snowflake
type SnowflakeConnector struct {
	db        *sql.DB
	converter *converter.TypeConverter
	logger    *zap.Logger
	cfg       *config.SnowflakeConfig
	maxRows   int
}

// snowflakeDSN builds the driver DSN from the config
func snowflakeDSN(cfg *config.SnowflakeConfig) (string, error) {
	return sf.DSN(&sf.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Password:      cfg.Password,
		Database:      cfg.Database,
		Schema:        cfg.Schema,
		Warehouse:     cfg.Warehouse,
		Role:          cfg.Role,
		Authenticator: cfg.Authenticator,
	})
}

// NewSnowflakeConnector creates a new Snowflake connection
func NewSnowflakeConnector(
	ctx context.Context,
	cfg *config.SnowflakeConfig,
	conv *converter.TypeConverter,
	logger *zap.Logger,
) (*SnowflakeConnector, error) {
	if cfg == nil {
		return nil, errors.New("snowflake configuration is required")
	}
	if conv == nil {
		return nil, errors.New("type converter cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("snowflake-connector")

	// Log connection attempt (without credentials)
	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("user", cfg.User),
		zap.String("database", cfg.Database),
		zap.String("warehouse", cfg.Warehouse),
		zap.String("role", cfg.Role))

	dsn, err := snowflakeDSN(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}

	// Open connection pool
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}

	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Verify connection
	if err := PingWithTimeout(ctx, db, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	connector := &SnowflakeConnector{
		db:        db,
		converter: conv,
		logger:    logger,
		cfg:       cfg,
		maxRows:   DefaultMaxRows,
	}

	LogConnectionStats(logger, cfg.Database, db)
	return connector, nil
}

// DB returns the underlying database connection
func (c *SnowflakeConnector) DB() *sql.DB {
	return c.db
}

// Validate verifies the Snowflake connection points at the configured database
func (c *SnowflakeConnector) Validate(ctx context.Context) error {
	var role, database, warehouse sql.NullString
	err := c.db.QueryRowContext(ctx, "SELECT CURRENT_ROLE(), CURRENT_DATABASE(), CURRENT_WAREHOUSE()").Scan(
		&role, &database, &warehouse)
	if err != nil {
		return fmt.Errorf("failed to verify Snowflake access: %w", err)
	}

	c.logger.Info("Connected to Snowflake",
		zap.String("role", role.String),
		zap.String("database", database.String),
		zap.String("warehouse", warehouse.String))

	if !strings.EqualFold(database.String, c.cfg.Database) {
		return fmt.Errorf("connected to wrong database: %s (expected: %s)",
			database.String, c.cfg.Database)
	}

	return nil
}

// QueryTable runs query under the configured query timeout
func (c *SnowflakeConnector) QueryTable(ctx context.Context, query string, args ...interface{}) (*model.Table, error) {
	table, err := queryTable(ctx, c.db, c.converter, c.cfg.QueryTimeout, c.maxRows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("snowflake: %w", err)
	}

	c.logger.Info("Loaded query result",
		zap.String("warehouse", c.cfg.Warehouse),
		zap.Int("rows", table.NumRows()),
		zap.Int("columns", table.NumColumns()))
	return table, nil
}

// Close closes the database connection
func (c *SnowflakeConnector) Close() error {
	c.logger.Info("Closing Snowflake connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db)
	return c.db.Close()
}
