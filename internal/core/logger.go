package core

import "go.uber.org/zap"

// Logger is the structured logging surface used by the ingestion core. Both
// the gofulmen CLI logger and a plain *zap.Logger satisfy it.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
}

// NopLogger discards everything.
func NopLogger() Logger {
	return zap.NewNop()
}
