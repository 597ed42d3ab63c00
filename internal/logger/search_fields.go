package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldSource is the structured log field key for the adapter name.
	FieldSource = "source"
	// FieldAlgorithm is the structured log field key for the ranking algorithm.
	FieldAlgorithm = "algorithm"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// SearchFields returns standard zap fields describing one search call.
// Empty values are ignored to keep log entries compact.
func SearchFields(source, algorithm string) []zap.Field {
	return StringFields(
		StringField{Key: FieldSource, Value: source},
		StringField{Key: FieldAlgorithm, Value: algorithm},
	)
}

// WithSearchFields attaches the common search fields to the provided logger.
func WithSearchFields(logger *zap.Logger, source, algorithm string) *zap.Logger {
	return WithFields(logger, SearchFields(source, algorithm)...)
}
