// File: severity.go
// Title: Error Severity Levels
// Description: Severity levels used to pick the log level of an error and
//              to decide whether an error needs operator attention.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-14
// Modified: 2026-09-14
//
// Change History:
// - 2026-09-14 v0.1.0: Initial implementation with severity levels

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates a problem with user input, e.g. a malformed
	// marker layout. The service keeps working normally.
	SeverityLow Severity = iota

	// SeverityMedium indicates a degraded but recoverable condition
	SeverityMedium

	// SeverityHigh indicates a failing dependency such as the database
	SeverityHigh

	// SeverityCritical indicates the service cannot operate
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode determines the default severity for an error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeServiceInitialization:
		return SeverityCritical

	case CodeDatabaseError, CodeServiceUnavailable, CodeInternal:
		return SeverityHigh

	case CodeTimeout, CodeExternalServiceError, CodeDetectionFailed,
		CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return SeverityMedium

	case CodeInvalidInput, CodeNotFound, CodeInvalidImage, CodeDuplicateEntry,
		CodeVPLStructure, CodeVPLSyntax, CodeVPLExecution,
		CodeValidationFailed, CodeRequiredField, CodeInvalidFormat, CodeValueOutOfRange:
		return SeverityLow

	default:
		return SeverityMedium
	}
}
