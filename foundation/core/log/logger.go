// File: logger.go
// Title: Core Logger Implementation
// Description: Implements the Logger type: leveled structured logging with
//              context fields, request IDs and integration with the
//              structured error type of this module.
// Author: msto63
// Version: v0.2.0
// Created: 2026-09-14
// Modified: 2026-10-02
//
// Change History:
// - 2026-09-14 v0.1.0: Initial implementation with structured logging
// - 2026-10-02 v0.2.0: LogError walks wrapped chains via errors.As

package log

import (
	"errors"
	"io"
	"os"
	"sync"

	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
)

// Logger represents a structured logger with contextual information
type Logger struct {
	level     Level
	formatter Formatter
	output    io.Writer
	name      string

	contextFields Fields
	requestID     string

	// writeMu is shared between clones so that lines written to the same
	// output never interleave
	writeMu *sync.Mutex
}

// Config represents logger configuration
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
	Name   string
}

// New creates a new logger writing JSON to stdout at the default level
func New() *Logger {
	return NewWithConfig(Config{Level: DefaultLevel(), Format: FormatJSON})
}

// NewWithConfig creates a new logger with the specified configuration
func NewWithConfig(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		level:         config.Level,
		formatter:     GetFormatter(config.Format),
		output:        out,
		name:          config.Name,
		contextFields: make(Fields),
		writeMu:       &sync.Mutex{},
	}
}

// WithLevel returns a copy with the given minimum level
func (l *Logger) WithLevel(level Level) *Logger {
	c := l.clone()
	c.level = level
	return c
}

// WithFormat returns a copy using the given format
func (l *Logger) WithFormat(format Format) *Logger {
	c := l.clone()
	c.formatter = GetFormatter(format)
	return c
}

// WithOutput returns a copy writing to output
func (l *Logger) WithOutput(output io.Writer) *Logger {
	c := l.clone()
	c.output = output
	c.writeMu = &sync.Mutex{}
	return c
}

// WithName returns a copy with the given logger name
func (l *Logger) WithName(name string) *Logger {
	c := l.clone()
	c.name = name
	return c
}

// WithField returns a copy that adds key=value to every entry
func (l *Logger) WithField(key string, value interface{}) *Logger {
	c := l.clone()
	c.contextFields[key] = value
	return c
}

// WithFields returns a copy that adds fields to every entry
func (l *Logger) WithFields(fields Fields) *Logger {
	c := l.clone()
	for k, v := range fields {
		c.contextFields[k] = v
	}
	return c
}

// WithRequestID returns a copy tagging every entry with requestID
func (l *Logger) WithRequestID(requestID string) *Logger {
	c := l.clone()
	c.requestID = requestID
	return c
}

// Trace logs a trace level message
func (l *Logger) Trace(message string, fields ...Fields) {
	l.log(LevelTrace, message, nil, fields...)
}

// Debug logs a debug level message
func (l *Logger) Debug(message string, fields ...Fields) {
	l.log(LevelDebug, message, nil, fields...)
}

// Info logs an info level message
func (l *Logger) Info(message string, fields ...Fields) {
	l.log(LevelInfo, message, nil, fields...)
}

// Warn logs a warning level message
func (l *Logger) Warn(message string, fields ...Fields) {
	l.log(LevelWarn, message, nil, fields...)
}

// Error logs an error level message
func (l *Logger) Error(message string, fields ...Fields) {
	l.log(LevelError, message, nil, fields...)
}

// Fatal logs a fatal level message and exits the program
func (l *Logger) Fatal(message string, fields ...Fields) {
	l.log(LevelFatal, message, nil, fields...)
	os.Exit(1)
}

// ErrorWithErr logs an error with an error object
func (l *Logger) ErrorWithErr(message string, err error, fields ...Fields) {
	l.log(LevelError, message, err, fields...)
}

// WarnWithErr logs a warning with an error object
func (l *Logger) WarnWithErr(message string, err error, fields ...Fields) {
	l.log(LevelWarn, message, err, fields...)
}

// LogError logs err at a level derived from its severity. Compile
// diagnostics (low severity) are logged at info.
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}

	var mdwErr *mdwerror.Error
	if !errors.As(err, &mdwErr) {
		l.log(LevelError, err.Error(), err)
		return
	}

	fields := Fields{
		"error_code":     mdwErr.Code().String(),
		"error_severity": mdwErr.Severity().String(),
	}
	if op := mdwErr.Operation(); op != "" {
		fields["error_operation"] = op
	}
	for k, v := range mdwErr.Details() {
		fields["error_"+k] = v
	}

	level := LevelError
	switch mdwErr.Severity() {
	case mdwerror.SeverityLow:
		level = LevelInfo
	case mdwerror.SeverityMedium:
		level = LevelWarn
	}
	l.log(level, err.Error(), err, fields)
}

// StartTimer creates and starts a new performance timer
func (l *Logger) StartTimer(operation string) *Timer {
	return NewTimer(l, operation)
}

// IsLevelEnabled returns true if the given level is enabled
func (l *Logger) IsLevelEnabled(level Level) bool {
	return level.ShouldLog(l.level)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() Level {
	return l.level
}

func (l *Logger) log(level Level, message string, err error, fields ...Fields) {
	if !level.ShouldLog(l.level) {
		return
	}
	entry := NewEntry(level, message)
	entry.Logger = l.name
	entry.RequestID = l.requestID
	entry.Error = err
	for k, v := range l.contextFields {
		entry.Fields[k] = v
	}
	for _, set := range fields {
		for k, v := range set {
			entry.Fields[k] = v
		}
	}
	l.write(entry)
}

func (l *Logger) write(entry *Entry) {
	formatted, err := l.formatter.Format(entry)
	if err != nil {
		return
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_, _ = l.output.Write(formatted)
}

func (l *Logger) clone() *Logger {
	c := *l
	c.contextFields = make(Fields, len(l.contextFields))
	for k, v := range l.contextFields {
		c.contextFields[k] = v
	}
	return &c
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New()
)

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	if logger == nil {
		return
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// Info logs an info message using the default logger
func Info(message string, fields ...Fields) {
	GetDefault().Info(message, fields...)
}

// Warn logs a warning message using the default logger
func Warn(message string, fields ...Fields) {
	GetDefault().Warn(message, fields...)
}

// Error logs an error message using the default logger
func Error(message string, fields ...Fields) {
	GetDefault().Error(message, fields...)
}
