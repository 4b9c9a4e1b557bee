// File: codes.go
// Title: Error Code Definitions
// Description: Standardized error codes for the compiler service. Codes
//              classify failures for logging, HTTP status mapping and the
//              diagnostic payload returned to clients.
// Author: msto63
// Version: v0.2.0
// Created: 2026-09-14
// Modified: 2026-10-02
//
// Change History:
// - 2026-09-14 v0.1.0: Generic codes
// - 2026-10-02 v0.2.0: Compiler pipeline and detection codes

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"

	// Storage
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeDuplicateEntry Code = "DUPLICATE_ENTRY"

	// Service and network
	CodeServiceUnavailable    Code = "SERVICE_UNAVAILABLE"
	CodeServiceInitialization Code = "SERVICE_INITIALIZATION"
	CodeExternalServiceError  Code = "EXTERNAL_SERVICE_ERROR"

	// Marker detection (upstream of the compiler)
	CodeDetectionFailed Code = "DETECTION_FAILED"
	CodeInvalidImage    Code = "INVALID_IMAGE"

	// Visual program language pipeline
	CodeVPLStructure Code = "VPL_STRUCTURE"
	CodeVPLSyntax    Code = "VPL_SYNTAX"
	CodeVPLExecution Code = "VPL_EXECUTION"

	// Configuration
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeMissingConfig Code = "MISSING_CONFIG"
	CodeInvalidConfig Code = "INVALID_CONFIG"

	// Validation
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeRequiredField    Code = "REQUIRED_FIELD"
	CodeInvalidFormat    Code = "INVALID_FORMAT"
	CodeValueOutOfRange  Code = "VALUE_OUT_OF_RANGE"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput, CodeTimeout,
		CodeDatabaseError, CodeDuplicateEntry,
		CodeServiceUnavailable, CodeServiceInitialization, CodeExternalServiceError,
		CodeDetectionFailed, CodeInvalidImage,
		CodeVPLStructure, CodeVPLSyntax, CodeVPLExecution,
		CodeConfigError, CodeMissingConfig, CodeInvalidConfig,
		CodeValidationFailed, CodeRequiredField, CodeInvalidFormat, CodeValueOutOfRange:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeDatabaseError, CodeDuplicateEntry:
		return "database"
	case CodeServiceUnavailable, CodeServiceInitialization, CodeExternalServiceError:
		return "service"
	case CodeDetectionFailed, CodeInvalidImage:
		return "detection"
	case CodeVPLStructure, CodeVPLSyntax, CodeVPLExecution:
		return "vpl"
	case CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return "configuration"
	case CodeValidationFailed, CodeRequiredField, CodeInvalidFormat, CodeValueOutOfRange:
		return "validation"
	default:
		return "generic"
	}
}

// IsCompileDiagnostic reports whether the code describes a defect in the
// photographed program rather than a failure of the service itself.
func (c Code) IsCompileDiagnostic() bool {
	return c.Category() == "vpl"
}

// HTTPStatus returns the appropriate HTTP status code for this error code
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return 404
	case CodeInvalidInput, CodeValidationFailed, CodeRequiredField, CodeInvalidFormat,
		CodeValueOutOfRange, CodeInvalidImage:
		return 400
	case CodeDuplicateEntry:
		return 409
	case CodeTimeout:
		return 408
	case CodeServiceUnavailable, CodeDatabaseError:
		return 503
	case CodeDetectionFailed, CodeExternalServiceError:
		return 502
	case CodeVPLStructure, CodeVPLSyntax, CodeVPLExecution:
		// compile diagnostics are regular results, not transport failures
		return 200
	default:
		return 500
	}
}
