// pkg/converter/converter.go
package converter

import (
	"errors"

	"go.uber.org/zap"
)

// ErrEmptyInput is returned when an upload has no header row
var ErrEmptyInput = errors.New("no columns to parse from input")

// TypeConverter handles parsing and rendering of table values
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Field delimiter for delimited text
	Delimiter rune
	// Tokens read as missing values
	NullTokens []string
	// Location used when a timestamp carries no zone
	DefaultTimezone string
	// Whether numeric-looking upload columns are read as numbers
	InferNumeric bool
}

// defaultNullTokens mirrors the usual missing-value spellings found in CSV exports
var defaultNullTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		Delimiter:       ',',
		NullTokens:      defaultNullTokens,
		DefaultTimezone: "UTC",
		InferNumeric:    true,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Delimiter == 0 {
		config.Delimiter = ','
	}
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// isNullToken determines if a raw field should be treated as missing
func (c *TypeConverter) isNullToken(field string) bool {
	for _, token := range c.config.NullTokens {
		if field == token {
			return true
		}
	}
	return false
}
