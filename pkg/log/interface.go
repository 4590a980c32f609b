// Package log provides a structured logging interface for loanpipe operations.
//
// This package defines a minimal, slog-compatible logging interface that allows
// for flexible implementation switching while providing pipeline-specific
// structured logging. The interface integrates with Go's standard log/slog
// package and the stacktrace-aware handler in handler.go.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.StageKey, "impute",
//	    log.ComponentKey, "preprocessing",
//	)
//	logger.Info("Imputation finished",
//	    log.RowsKey, 614,
//	    log.MissingKey, 0,
//	)

package log

import (
	"context"
	"log/slog"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// The interface supports method chaining through the With method, allowing
// for creation of contextual loggers with pre-populated fields.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If a field value is an error, stack trace information may be
	// automatically included by the underlying handler.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
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

// LoggerProvider defines an interface for creating and configuring loggers.
// It allows dependency injection and testing with different implementations.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a specific component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for loggers created by this provider.
	SetLevel(level Level)
}

// slogAdapter bridges the package Logger interface to the process-wide slog
// default configured by SetupLogger.
type slogAdapter struct {
	logger *slog.Logger
}

// GetLogger returns a Logger backed by the default slog logger.
func GetLogger() Logger {
	return &slogAdapter{logger: slog.Default()}
}

// GetLoggerWithName returns a Logger pre-populated with a component name.
func GetLoggerWithName(name string) Logger {
	return &slogAdapter{logger: slog.Default().With(ComponentKey, name)}
}

func (a *slogAdapter) Debug(msg string, fields ...any) { a.logger.Debug(msg, fields...) }
func (a *slogAdapter) Info(msg string, fields ...any)  { a.logger.Info(msg, fields...) }
func (a *slogAdapter) Warn(msg string, fields ...any)  { a.logger.Warn(msg, fields...) }
func (a *slogAdapter) Error(msg string, fields ...any) { a.logger.Error(msg, fields...) }

func (a *slogAdapter) With(fields ...any) Logger {
	return &slogAdapter{logger: a.logger.With(fields...)}
}

func (a *slogAdapter) Enabled(ctx context.Context, level Level) bool {
	return a.logger.Enabled(ctx, slog.Level(level))
}
