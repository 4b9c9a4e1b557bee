package structurer

import "fmt"

// Code identifies a structuring failure
type Code string

const (
	CodeNoTokensDetected       Code = "NoTokensDetected"
	CodeInvalidToken           Code = "InvalidToken"
	CodeAmbiguousRow           Code = "AmbiguousRow"
	CodeInvalidIndentationJump Code = "InvalidIndentationJump"
)

// Error is a recoverable structuring failure. Row is the zero-based index
// of the offending row, or -1 when the failure is not tied to a row.
type Error struct {
	Code    Code
	Row     int
	Message string
}

func (e *Error) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s at row %d: %s", e.Code, e.Row+1, e.Message)
}

// Is matches any *Error with the same code, so errors.Is(err,
// ErrAmbiguousRow) works regardless of row and message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is
var (
	ErrNoTokensDetected       = &Error{Code: CodeNoTokensDetected, Row: -1}
	ErrInvalidToken           = &Error{Code: CodeInvalidToken, Row: -1}
	ErrAmbiguousRow           = &Error{Code: CodeAmbiguousRow, Row: -1}
	ErrInvalidIndentationJump = &Error{Code: CodeInvalidIndentationJump, Row: -1}
)

func newError(code Code, row int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Row: row, Message: fmt.Sprintf(format, args...)}
}
