// Package log provides a structured logging facade for ensemble operations.
//
// The package defines a minimal, slog-compatible logging interface so the
// library never commits callers to a particular backend. The default
// implementation is backed by zerolog (see NewZerologProvider); tests use the
// in-memory TestLogger.
//
// Attribute keys for common ML fields live in attributes.go. Using them keeps
// log output consistent and analyzable across estimators:
//
//	logger := provider.GetLoggerWithName("StackingClassifier").With(
//	    log.EstimatorIDKey, id,
//	)
//	logger.Info("training started",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, rows,
//	    log.MembersKey, len(members),
//	)
package log

import (
	"context"
)

// Logger is a leveled, structured logger. Fields are alternating key-value
// pairs, as in log/slog. Implementations must be safe for concurrent use:
// ensembles log from per-child and per-fold goroutines.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// An error value passed as a field value is rendered with its message
	// (and stack trace where the backend supports it).
	Error(msg string, fields ...any)

	// With returns a new Logger that includes the given fields in every
	// subsequent log record. The receiver is not modified.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	// Use it to skip expensive field construction:
	//
	//	if logger.Enabled(ctx, log.LevelDebug) {
	//	    logger.Debug("fold assignment", "folds", describeFolds(folds))
	//	}
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level. Values are compatible with slog.Level.
type Level int

// Standard logging levels.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. Estimator constructors take
// their logger from a provider so tests can inject a capturing one.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for loggers from this provider.
	SetLevel(level Level)
}

// NoOpLogger discards every record. It is the fallback when no provider has
// been configured.
type NoOpLogger struct{}

// Debug implements Logger.Debug.
func (NoOpLogger) Debug(msg string, fields ...any) {}

// Info implements Logger.Info.
func (NoOpLogger) Info(msg string, fields ...any) {}

// Warn implements Logger.Warn.
func (NoOpLogger) Warn(msg string, fields ...any) {}

// Error implements Logger.Error.
func (NoOpLogger) Error(msg string, fields ...any) {}

// With implements Logger.With.
func (n NoOpLogger) With(fields ...any) Logger { return n }

// Enabled implements Logger.Enabled. It always reports false.
func (NoOpLogger) Enabled(ctx context.Context, level Level) bool { return false }
