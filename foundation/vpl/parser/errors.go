package parser

import "fmt"

// Code identifies a parse failure
type Code string

const (
	CodeInvalidLoopCount Code = "InvalidLoopCount"
	CodeEmptyBlockBody   Code = "EmptyBlockBody"
	CodeOrphanCondition  Code = "OrphanCondition"
	CodeMissingCondition Code = "MissingCondition"
	CodeUnexpectedToken  Code = "UnexpectedToken"
)

// Error represents a parse error tied to the zero-based row of the
// structured stream where parsing stopped
type Error struct {
	Code    Code
	Row     int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at row %d: %s", e.Code, e.Row+1, e.Message)
}

// Is matches any *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is
var (
	ErrInvalidLoopCount = &Error{Code: CodeInvalidLoopCount}
	ErrEmptyBlockBody   = &Error{Code: CodeEmptyBlockBody}
	ErrOrphanCondition  = &Error{Code: CodeOrphanCondition}
	ErrMissingCondition = &Error{Code: CodeMissingCondition}
	ErrUnexpectedToken  = &Error{Code: CodeUnexpectedToken}
)

func newError(code Code, row int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Row: row, Message: fmt.Sprintf(format, args...)}
}
