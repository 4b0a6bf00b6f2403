// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/config"
	"github.com/David-Botos/datawizard/pkg/converter"
)

// Source kinds accepted by Create
const (
	SourcePostgres  = "postgres"
	SourceSnowflake = "snowflake"
)

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg       *config.Config
	converter *converter.TypeConverter
	logger    *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, conv *converter.TypeConverter, logger *zap.Logger) *ConnectorFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectorFactory{
		cfg:       cfg,
		converter: conv,
		logger:    logger,
	}
}

// CreateSnowflakeConnector creates a new Snowflake connector
func (f *ConnectorFactory) CreateSnowflakeConnector(ctx context.Context) (*SnowflakeConnector, error) {
	if f.cfg.Snowflake == nil {
		return nil, fmt.Errorf("snowflake is not configured: %w", config.ErrNotConfigured)
	}
	f.logger.Info("Creating Snowflake connector")

	connector, err := NewSnowflakeConnector(ctx, f.cfg.Snowflake, f.converter, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Snowflake connector: %w", err)
	}

	return connector, nil
}

// CreatePostgresConnector creates a new PostgreSQL connector
func (f *ConnectorFactory) CreatePostgresConnector(ctx context.Context) (*PostgresConnector, error) {
	if f.cfg.Postgres == nil {
		return nil, fmt.Errorf("postgreSQL is not configured: %w", config.ErrNotConfigured)
	}
	f.logger.Info("Creating PostgreSQL connector")

	connector, err := NewPostgresConnector(ctx, f.cfg.Postgres, f.converter, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connector: %w", err)
	}

	return connector, nil
}

// Create returns a connector for the named source kind
func (f *ConnectorFactory) Create(ctx context.Context, kind string) (DatabaseConnector, error) {
	switch kind {
	case SourcePostgres:
		c, err := f.CreatePostgresConnector(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	case SourceSnowflake:
		c, err := f.CreateSnowflakeConnector(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
}
