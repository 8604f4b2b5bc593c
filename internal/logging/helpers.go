package logging

import (
	"maps"
	"strings"
)

const (
	fieldDirection = "direction"
	fieldSource    = "source"
)

// WithFields attaches structured fields to a logger when the implementation
// supports FieldsLogger. Nil loggers and empty maps are returned unchanged.
func WithFields(logger Logger, fields map[string]any) Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}

	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fieldsLogger.WithFields(copied)
	}

	return logger
}

// WithConversionContext enriches logger with the conversion direction and
// the input source (a file path or "stdin"). Empty values are ignored.
func WithConversionContext(logger Logger, direction, source string) Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(direction); trimmed != "" {
		fields[fieldDirection] = trimmed
	}
	if trimmed := strings.TrimSpace(source); trimmed != "" {
		fields[fieldSource] = trimmed
	}
	return WithFields(logger, fields)
}
