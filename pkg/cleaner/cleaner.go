// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/converter"
	"github.com/David-Botos/datawizard/pkg/model"
	"github.com/David-Botos/datawizard/pkg/report"
)

// Options toggles the individual cleaning stages
type Options struct {
	HandleMissing    bool `json:"handle_missing"`
	RemoveDuplicates bool `json:"remove_duplicates"`
	StandardizeText  bool `json:"standardize_text"`
	FixTypes         bool `json:"fix_types"`
}

// DefaultOptions enables every stage
func DefaultOptions() Options {
	return Options{
		HandleMissing:    true,
		RemoveDuplicates: true,
		StandardizeText:  true,
		FixTypes:         true,
	}
}

// Result is the outcome of one pipeline run
type Result struct {
	RunID       string
	Source      string
	Original    *model.Table // The input, never modified
	Cleaned     *model.Table
	Operations  []model.CleaningOperation
	RowsRemoved int
	// Recovered holds per-column failures that were skipped silently
	Recovered []report.ErrorRecord
}

// Log returns the human readable cleaning log
func (r *Result) Log() []string {
	lines := make([]string, len(r.Operations))
	for i, op := range r.Operations {
		lines[i] = op.Message
	}
	return lines
}

// Run converts the result into the audit record form
func (r *Result) Run() *model.CleaningRun {
	return &model.CleaningRun{
		RunID:      r.RunID,
		SourceName: r.Source,
		RowsIn:     r.Original.NumRows(),
		RowsOut:    r.Cleaned.NumRows(),
		Operations: r.Operations,
		CleanedAt:  time.Now().UTC(),
	}
}

// Recorder persists cleaning runs
type Recorder interface {
	Record(ctx context.Context, run *model.CleaningRun) error
}

// DataCleaner applies the heuristic cleaning pipeline to uploaded tables
type DataCleaner struct {
	converter *converter.TypeConverter
	recorder  Recorder
	logger    *zap.Logger
}

// NewDataCleaner creates a new DataCleaner instance
// recorder may be nil when runs are not audited
func NewDataCleaner(conv *converter.TypeConverter, recorder Recorder, logger *zap.Logger) (*DataCleaner, error) {
	if conv == nil {
		return nil, errors.New("type converter cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &DataCleaner{
		converter: conv,
		recorder:  recorder,
		logger:    logger,
	}, nil
}

// Clean runs the enabled stages in fixed order on a copy of the table:
// imputation, duplicate removal, text standardization, type coercion
func (c *DataCleaner) Clean(ctx context.Context, table *model.Table, source string, opts Options) (*Result, error) {
	if table == nil {
		return nil, errors.New("table cannot be nil")
	}

	result := &Result{
		RunID:    uuid.New().String(),
		Source:   source,
		Original: table,
		Cleaned:  table.Clone(),
	}

	if opts.HandleMissing {
		result.Operations = append(result.Operations, imputeMissing(result.Cleaned)...)
	}

	if opts.RemoveDuplicates {
		deduped, removed := removeDuplicates(result.Cleaned)
		result.Cleaned = deduped
		result.RowsRemoved = removed
		if removed > 0 {
			result.Operations = append(result.Operations, newOperation(model.StageDeduplicate, "", removed,
				"Removed %d duplicate rows", removed))
		}
	}

	if opts.StandardizeText {
		op, skipped := standardizeText(result.Cleaned)
		result.Operations = append(result.Operations, op)
		result.Recovered = append(result.Recovered, skipped...)
	}

	if opts.FixTypes {
		ops, skipped := c.coerceTypes(result.Cleaned)
		result.Operations = append(result.Operations, ops...)
		result.Recovered = append(result.Recovered, skipped...)
	}

	c.logger.Info("Cleaned table",
		zap.String("run_id", result.RunID),
		zap.String("source", source),
		zap.Int("rows_in", table.NumRows()),
		zap.Int("rows_out", result.Cleaned.NumRows()),
		zap.Int("operations", len(result.Operations)))

	if c.recorder != nil && len(result.Operations) > 0 {
		if err := c.recorder.Record(ctx, result.Run()); err != nil {
			// Audit failures never fail the run
			c.logger.Warn("Failed to record cleaning run",
				zap.String("run_id", result.RunID),
				zap.Error(err))
		}
	}

	return result, nil
}
