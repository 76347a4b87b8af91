package logger

// NoOpLogger discards all log output. Used in tests.
type NoOpLogger struct{}

// NewNoOp creates a no-op logger.
func NewNoOp() Interface {
	return &NoOpLogger{}
}

// Debug does nothing.
func (l *NoOpLogger) Debug(msg string, fields ...any) {}

// Info does nothing.
func (l *NoOpLogger) Info(msg string, fields ...any) {}

// Warn does nothing.
func (l *NoOpLogger) Warn(msg string, fields ...any) {}

// Error does nothing.
func (l *NoOpLogger) Error(msg string, fields ...any) {}

// With returns the same logger.
func (l *NoOpLogger) With(fields ...any) Interface { return l }

// WithComponent returns the same logger.
func (l *NoOpLogger) WithComponent(component string) Interface { return l }

// WithURL returns the same logger.
func (l *NoOpLogger) WithURL(url string) Interface { return l }

// WithError returns the same logger.
func (l *NoOpLogger) WithError(err error) Interface { return l }
