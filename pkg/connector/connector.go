// pkg/connector/connector.go
package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/converter"
	"github.com/David-Botos/datawizard/pkg/model"
)

// DefaultMaxRows caps how many rows a query may materialize
const DefaultMaxRows = 500000

// ErrTooManyRows is returned when a query result exceeds the row cap
var ErrTooManyRows = errors.New("query returned too many rows")

// DatabaseConnector defines the interface for warehouse sources of uploaded tables
type DatabaseConnector interface {
	// DB returns the underlying database connection
	DB() *sql.DB

	// Validate verifies the connection
	Validate(ctx context.Context) error

	// Close closes the connection and releases resources
	Close() error

	// QueryTable runs a query and materializes its result as a table
	QueryTable(ctx context.Context, query string, args ...interface{}) (*model.Table, error)
}

// ConnStats contains standardized connection statistics
type ConnStats struct {
	OpenConnections int
	InUse           int
	Idle            int
	MaxOpenConns    int
	WaitCount       int64
	WaitDuration    time.Duration
}

// GetConnectionStats returns connection pool statistics for logging
func GetConnectionStats(db *sql.DB) ConnStats {
	stats := db.Stats()
	return ConnStats{
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		MaxOpenConns:    stats.MaxOpenConnections,
		WaitCount:       stats.WaitCount,
		WaitDuration:    stats.WaitDuration,
	}
}

// LogConnectionStats logs connection pool statistics
func LogConnectionStats(logger *zap.Logger, name string, db *sql.DB) {
	stats := GetConnectionStats(db)
	logger.Debug("Connection pool stats",
		zap.String("database", name),
		zap.Int("open_connections", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int("max_open", stats.MaxOpenConns),
		zap.Int64("wait_count", stats.WaitCount),
		zap.Duration("wait_duration", stats.WaitDuration),
	)
}

// PingWithTimeout attempts to ping a database with a timeout
func PingWithTimeout(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- db.PingContext(pingCtx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-pingCtx.Done():
		return fmt.Errorf("ping timed out after %v: %w", timeout, pingCtx.Err())
	}
}

// ApplyConnectionSettings configures database connection pool settings
func ApplyConnectionSettings(db *sql.DB, maxOpen, maxIdle int, maxLifetime, maxIdleTime time.Duration) {
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime > 0 {
		db.SetConnMaxLifetime(maxLifetime)
	}
	if maxIdleTime > 0 {
		db.SetConnMaxIdleTime(maxIdleTime)
	}
}

// rowSource is the subset of *sql.Rows needed to build a table
type rowSource interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanTable reads every row into a table, converting driver values to cells.
// Text columns that hold only numbers become numeric, as they do for uploads.
func scanTable(rows rowSource, conv *converter.TypeConverter, maxRows int) (*model.Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, converter.ErrEmptyInput
	}

	table := model.NewTable(columns...)
	raw := make([]interface{}, len(columns))
	dest := make([]interface{}, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}

	for rows.Next() {
		if maxRows > 0 && table.NumRows() >= maxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, maxRows)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", table.NumRows(), err)
		}

		row := make([]model.Value, len(columns))
		for i, v := range raw {
			row[i] = conv.FromDriverValue(v)
		}
		table.AppendRow(row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	conv.NormalizeRows(table)
	return table, nil
}

// queryTable runs query on db with a timeout and materializes the result
func queryTable(
	ctx context.Context,
	db *sql.DB,
	conv *converter.TypeConverter,
	timeout time.Duration,
	maxRows int,
	query string,
	args ...interface{},
) (*model.Table, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return scanTable(rows, conv, maxRows)
}
