// pkg/cleaner/recorder.go
package cleaner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/model"
)

// PostgresRecorder stores one audit row per cleaning run
type PostgresRecorder struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresRecorder creates a recorder and ensures the tracking table exists
func NewPostgresRecorder(ctx context.Context, db *sql.DB, logger *zap.Logger) (*PostgresRecorder, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	recorder := &PostgresRecorder{
		db:     db,
		logger: logger,
	}

	if err := recorder.setupRunsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup cleaning runs table: %w", err)
	}

	return recorder, nil
}

// setupRunsTable ensures the cleaning_runs tracking table exists
func (r *PostgresRecorder) setupRunsTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS public.cleaning_runs (
			id SERIAL PRIMARY KEY,
			run_id UUID NOT NULL UNIQUE,
			source_name TEXT NOT NULL,
			rows_in INTEGER NOT NULL,
			rows_out INTEGER NOT NULL,
			log TEXT[] NOT NULL,
			stages TEXT[] NOT NULL,
			cleaned_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	r.logger.Info("Ensured cleaning_runs table exists")
	return nil
}

// Record inserts the run into the tracking table
func (r *PostgresRecorder) Record(ctx context.Context, run *model.CleaningRun) error {
	if run == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	stages := make([]string, len(run.Operations))
	for i, op := range run.Operations {
		stages[i] = op.Stage
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO public.cleaning_runs
		(run_id, source_name, rows_in, rows_out, log, stages, cleaned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		run.RunID,
		run.SourceName,
		run.RowsIn,
		run.RowsOut,
		pq.Array(run.Log()),
		pq.Array(stages),
		run.CleanedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cleaning run: %w", err)
	}

	r.logger.Info("Recorded cleaning run",
		zap.String("run_id", run.RunID),
		zap.Int("operations", len(run.Operations)))
	return nil
}
