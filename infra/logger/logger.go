package logger

import corelogger "github.com/kilianp07/emobts/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component. The output format follows
// APP_ENV and the minimum level LOG_LEVEL.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// NewWithLevel returns a Logger for component logging at level and above.
// An empty level falls back to LOG_LEVEL.
func NewWithLevel(component, level string) Logger {
	if level == "" {
		return NewZerologLogger(component)
	}
	return NewZerologLoggerLevel(component, level)
}
