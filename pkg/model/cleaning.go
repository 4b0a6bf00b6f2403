// pkg/model/cleaning.go
package model

import (
	"time"
)

// Cleaning stages in pipeline order
const (
	StageImputation   = "missing_value_imputation"
	StageDeduplicate  = "duplicate_removal"
	StageStandardize  = "text_standardization"
	StageTypeCoercion = "type_coercion"
)

// CleaningOperation represents a single transformation applied by the pipeline
type CleaningOperation struct {
	Stage      string    // Pipeline stage that produced the operation
	ColumnName string    // Column that was cleaned (empty for table-wide operations)
	Message    string    // Human readable log line
	Affected   int       // Cells or rows touched
	CleanedAt  time.Time // When the operation was applied
}

// CleaningRun summarizes one pipeline execution for the audit recorder
type CleaningRun struct {
	RunID      string
	SourceName string
	RowsIn     int
	RowsOut    int
	Operations []CleaningOperation
	CleanedAt  time.Time
}

// Log returns the human readable lines of the run in order
func (r *CleaningRun) Log() []string {
	lines := make([]string, len(r.Operations))
	for i, op := range r.Operations {
		lines[i] = op.Message
	}
	return lines
}
