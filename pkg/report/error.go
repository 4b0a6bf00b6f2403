// pkg/report/error.go
package report

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Action defines the recommended action after an error
type Action int

const (
	// ActionContinue indicates processing should continue despite the error
	ActionContinue Action = iota
	// ActionSkipColumn indicates the current column should be left unchanged
	ActionSkipColumn
	// ActionFallback indicates the caller should use its last known value
	ActionFallback
	// ActionAbort indicates the current interaction should stop
	ActionAbort
)

// String returns a string representation of the action
func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "Continue"
	case ActionSkipColumn:
		return "SkipColumn"
	case ActionFallback:
		return "Fallback"
	case ActionAbort:
		return "Abort"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// ErrorCategory defines categories of errors raised during an interaction
type ErrorCategory int

const (
	// Error categories with increasing severity
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryWarning
	ErrorCategoryCoercion
	ErrorCategoryExternalResource
	ErrorCategoryInput
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryWarning:
		return "Warning"
	case ErrorCategoryCoercion:
		return "Coercion"
	case ErrorCategoryExternalResource:
		return "ExternalResource"
	case ErrorCategoryInput:
		return "Input"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrorRecord represents a single error during an interaction
type ErrorRecord struct {
	Category    ErrorCategory
	Source      string // Upload name, catalog path or store name
	ColumnName  string
	SourceValue interface{}
	Error       error
	Message     string // Derived from Error but stored for serialization
	Timestamp   time.Time
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:  category,
		Error:     err,
		Timestamp: time.Now(),
	}

	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// WithSource adds the originating collaborator to the error record
func (r ErrorRecord) WithSource(source string) ErrorRecord {
	r.Source = source
	return r
}

// WithColumn adds column information to the error record
func (r ErrorRecord) WithColumn(columnName string, sourceValue interface{}) ErrorRecord {
	r.ColumnName = columnName
	r.SourceValue = sourceValue
	return r
}

// Surfaced reports whether the record is shown to the user
// Coercion failures are recovered locally and stay silent
func (r ErrorRecord) Surfaced() bool {
	switch r.Category {
	case ErrorCategoryWarning, ErrorCategoryExternalResource, ErrorCategoryInput:
		return true
	default:
		return false
	}
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))

	if r.Source != "" {
		sb.WriteString(fmt.Sprintf("Source: %s ", r.Source))
	}

	if r.ColumnName != "" {
		sb.WriteString(fmt.Sprintf("Column: %s ", r.ColumnName))
		if r.SourceValue != nil {
			sb.WriteString(fmt.Sprintf("Value: %v ", r.SourceValue))
		}
	}

	if r.Error != nil {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Error.Error()))
	} else if r.Message != "" {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Message))
	}

	return strings.TrimSpace(sb.String())
}

// Handler collects the errors of one interaction
type Handler struct {
	logger  *zap.Logger
	records []ErrorRecord
	counts  map[ErrorCategory]int
	mu      sync.Mutex
}

// NewHandler creates a new error handler
func NewHandler(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		logger: logger,
		counts: make(map[ErrorCategory]int),
	}
}

// HandleError records an error and determines the action to take
func (h *Handler) HandleError(record ErrorRecord) Action {
	h.RecordError(record)

	switch record.Category {
	case ErrorCategoryNone, ErrorCategoryWarning:
		return ActionContinue
	case ErrorCategoryCoercion:
		return ActionSkipColumn
	case ErrorCategoryExternalResource:
		return ActionFallback
	case ErrorCategoryInput:
		return ActionAbort
	default:
		return ActionContinue
	}
}

// Warn records a user-visible warning without an underlying error
func (h *Handler) Warn(source, message string) {
	record := NewErrorRecord(nil, ErrorCategoryWarning).WithSource(source)
	record.Message = message
	h.RecordError(record)
}

// RecordError saves an error occurrence
func (h *Handler) RecordError(record ErrorRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.counts[record.Category]++
	h.records = append(h.records, record)

	var logLevel = zap.DebugLevel
	switch record.Category {
	case ErrorCategoryWarning, ErrorCategoryExternalResource:
		logLevel = zap.WarnLevel
	case ErrorCategoryInput:
		logLevel = zap.ErrorLevel
	}

	h.logger.Log(logLevel, "Interaction error",
		zap.String("category", record.Category.String()),
		zap.String("source", record.Source),
		zap.String("column", record.ColumnName),
		zap.String("error", record.Message))
}

// Warnings returns the user-visible messages in the order they were recorded
func (h *Handler) Warnings() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var warnings []string
	for _, record := range h.records {
		if record.Surfaced() {
			warnings = append(warnings, record.Message)
		}
	}
	return warnings
}

// Records returns a copy of every recorded error
func (h *Handler) Records() []ErrorRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	records := make([]ErrorRecord, len(h.records))
	copy(records, h.records)
	return records
}

// GetErrorSummary returns error counts by category
func (h *Handler) GetErrorSummary() map[ErrorCategory]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	summary := make(map[ErrorCategory]int)
	for category, count := range h.counts {
		summary[category] = count
	}
	return summary
}

// HasInputError reports whether the interaction must be aborted
func (h *Handler) HasInputError() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[ErrorCategoryInput] > 0
}

// WrapError creates a new error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
