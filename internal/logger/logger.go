// Package logger builds the charmbracelet/log loggers used across packages.
// Output goes to stderr so command results on stdout stay pipeable.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New creates a timestamped logger that respects the global log level.
func New(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

// Default is New without timestamps, for short-lived CLI commands.
func Default(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: false,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

// For returns New when timestamps is set and Default otherwise.
func For(prefix string, timestamps bool) *log.Logger {
	if timestamps {
		return New(prefix)
	}
	return Default(prefix)
}

// NewWithConfig creates a logger on w with explicit settings.
func NewWithConfig(w io.Writer, prefix string, level log.Level, showTimestamp bool, f log.Formatter) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportTimestamp: showTimestamp,
		Formatter:       f,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// SetLevel parses level ("debug", "info", "warn", "error") and applies it
// globally. Loggers created afterwards inherit it.
func SetLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)
	return nil
}

// OrDefault returns l, or a Default logger with prefix when l is nil.
func OrDefault(l *log.Logger, prefix string) *log.Logger {
	if l != nil {
		return l
	}
	return Default(prefix)
}
