// Package interfaces defines core domain contracts.
//
//nolint:revive // Package name 'interfaces' is intentional for domain layer
package interfaces

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs debug-level messages
	Debug(msg string, fields ...Field)

	// Info logs informational messages
	Info(msg string, fields ...Field)

	// Warn logs warning messages
	Warn(msg string, fields ...Field)

	// Error logs error messages
	Error(msg string, fields ...Field)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new Field (convenience function)
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// KeyVals flattens fields into alternating key/value pairs
func KeyVals(fields []Field) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

// NoOpLogger is a logger that does nothing (useful for tests)
type NoOpLogger struct{}

// Debug does nothing (no-op implementation)
func (n *NoOpLogger) Debug(_ string, _ ...Field) {}

// Info does nothing (no-op implementation)
func (n *NoOpLogger) Info(_ string, _ ...Field) {}

// Warn does nothing (no-op implementation)
func (n *NoOpLogger) Warn(_ string, _ ...Field) {}

// Error does nothing (no-op implementation)
func (n *NoOpLogger) Error(_ string, _ ...Field) {}
