// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating service loggers
// Author:      msto63
// Created:     2026-09-14
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"strings"

	mdwlog "github.com/msto63/ct4pwd/foundation/core/log"
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service name
	ServiceName string

	// Level name (trace, debug, info, warn, error, fatal), info when unknown
	Level string

	// Output format: "json", "text" or "console" (default: json)
	Format string

	// Primary output, stderr when nil
	Output io.Writer

	// Additional outputs (besides the primary one)
	AdditionalOutputs []io.Writer
}

// NewLogger creates a new foundation logger from cfg
func NewLogger(cfg LoggerConfig) *mdwlog.Logger {
	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}

	if len(cfg.AdditionalOutputs) > 0 {
		writers := append([]io.Writer{output}, cfg.AdditionalOutputs...)
		output = io.MultiWriter(writers...)
	}

	return mdwlog.NewWithConfig(mdwlog.Config{
		Level:  parseLevel(cfg.Level),
		Format: parseFormat(cfg.Format),
		Output: output,
		Name:   cfg.ServiceName,
	})
}

// Service creates the logger of a long-running compile service from the
// level and format of the [general] config section
func Service(name, level, format string) *Logger {
	return Wrap(NewLogger(LoggerConfig{ServiceName: name, Level: level, Format: format}), name)
}

// Console creates the human readable logger of the ct4pwd commands.
// It only reports warnings unless verbose is set.
func Console(name string, verbose bool) *Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return Wrap(NewLogger(LoggerConfig{ServiceName: name, Level: level, Format: "console"}), name)
}

// parseLevel converts a string level to mdwlog.Level, falling back to info
func parseLevel(level string) mdwlog.Level {
	parsed, err := mdwlog.ParseLevel(level)
	if err != nil {
		return mdwlog.LevelInfo
	}
	return parsed
}

func parseFormat(format string) mdwlog.Format {
	switch strings.ToLower(format) {
	case "text":
		return mdwlog.FormatText
	case "console":
		return mdwlog.FormatConsole
	default:
		return mdwlog.FormatJSON
	}
}

// Logger wraps the foundation logger with a key/value call style
type Logger struct {
	*mdwlog.Logger
	name string
}

// New creates a JSON logger at info level, used when a component is
// constructed without one
func New(name string) *Logger {
	return Service(name, "info", "json")
}

// Wrap adapts an existing foundation logger
func Wrap(logger *mdwlog.Logger, name string) *Logger {
	return &Logger{Logger: logger, name: name}
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// WithLevel returns a copy logging at the named level (debug, info,
// warn, error); unknown names fall back to info
func (l *Logger) WithLevel(level string) *Logger {
	return &Logger{
		Logger: l.Logger.WithLevel(parseLevel(level)),
		name:   l.name,
	}
}

// With returns a logger carrying the given key/value pairs
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.WithFields(toFields(keysAndValues...)),
		name:   l.name,
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toFields(keysAndValues...))
}

// Info logs an info message
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toFields(keysAndValues...))
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toFields(keysAndValues...))
}

// Error logs an error message
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, toFields(keysAndValues...))
}

// toFields converts key-value pairs to mdwlog.Fields
func toFields(keysAndValues ...interface{}) mdwlog.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(mdwlog.Fields)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
