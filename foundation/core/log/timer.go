// File: timer.go
// Title: Performance Timer
// Description: Measures an operation and logs its duration on Stop.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-14
// Modified: 2026-09-14
//
// Change History:
// - 2026-09-14 v0.1.0: Initial implementation

package log

import "time"

// Timer represents a performance timer for measuring operation duration
type Timer struct {
	logger    *Logger
	operation string
	start     time.Time
	fields    Fields
	level     Level
	stopped   bool
}

// NewTimer creates a new timer for the given operation
func NewTimer(logger *Logger, operation string) *Timer {
	return &Timer{
		logger:    logger,
		operation: operation,
		start:     time.Now(),
		fields:    make(Fields),
		level:     LevelDebug,
	}
}

// WithLevel sets the log level for the completion message
func (t *Timer) WithLevel(level Level) *Timer {
	t.level = level
	return t
}

// WithField adds a field to be logged when the timer completes
func (t *Timer) WithField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// Elapsed returns the elapsed time since the timer was started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop logs the elapsed time once and returns it. Later calls return 0.
func (t *Timer) Stop() time.Duration {
	if t.stopped {
		return 0
	}
	t.stopped = true
	elapsed := t.Elapsed()
	t.emit("operation completed", elapsed, nil)
	return elapsed
}

// StopWithError is Stop for a failed operation; it logs at warn level
func (t *Timer) StopWithError(err error) time.Duration {
	if t.stopped {
		return 0
	}
	t.stopped = true
	elapsed := t.Elapsed()
	if t.level < LevelWarn {
		t.level = LevelWarn
	}
	t.emit("operation failed", elapsed, err)
	return elapsed
}

func (t *Timer) emit(message string, elapsed time.Duration, err error) {
	if t.logger == nil || !t.level.ShouldLog(t.logger.level) {
		return
	}
	entry := NewEntry(t.level, message)
	entry.Logger = t.logger.name
	entry.RequestID = t.logger.requestID
	entry.Duration = elapsed
	entry.Error = err
	for k, v := range t.logger.contextFields {
		entry.Fields[k] = v
	}
	for k, v := range t.fields {
		entry.Fields[k] = v
	}
	entry.Fields["operation"] = t.operation
	t.logger.write(entry)
}
