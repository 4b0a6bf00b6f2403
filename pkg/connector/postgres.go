// pkg/connector/postgres.go
package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/config"
	"github.com/David-Botos/datawizard/pkg/converter"
	"github.com/David-Botos/datawizard/pkg/model"
)

// PostgresConnector implements the DatabaseConnector interface for PostgreSQL
type PostgresConnector struct {
	db        *sql.DB
	converter *converter.TypeConverter
	logger    *zap.Logger
	cfg       *config.PostgresConfig
	maxRows   int
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector
func NewPostgresConnector(
	ctx context.Context,
	cfg *config.PostgresConfig,
	conv *converter.TypeConverter,
	logger *zap.Logger,
) (*PostgresConnector, error) {
	if cfg == nil {
		return nil, errors.New("postgreSQL configuration is required")
	}
	if conv == nil {
		return nil, errors.New("type converter cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("postgres-connector")

	// Log connection attempt
	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	// Open database connection
	db, err := sql.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Verify connection
	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	connector := &PostgresConnector{
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
func (c *PostgresConnector) DB() *sql.DB {
	return c.db
}

// SQLX wraps the connection for the sqlx helpers
func (c *PostgresConnector) SQLX() *sqlx.DB {
	return sqlx.NewDb(c.db, "pgx")
}

// Validate verifies the PostgreSQL connection
func (c *PostgresConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}

	c.logger.Info("PostgreSQL connection validated",
		zap.String("version", version),
		zap.String("database", c.cfg.Database),
		zap.String("host", c.cfg.Host),
		zap.Int("port", c.cfg.Port))
	return nil
}

// QueryTable runs query under the configured statement timeout
func (c *PostgresConnector) QueryTable(ctx context.Context, query string, args ...interface{}) (*model.Table, error) {
	table, err := queryTable(ctx, c.db, c.converter, c.cfg.StatementTimeout, c.maxRows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	c.logger.Info("Loaded query result",
		zap.Int("rows", table.NumRows()),
		zap.Int("columns", table.NumColumns()))
	return table, nil
}

// Close closes the database connection
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db)
	return c.db.Close()
}
