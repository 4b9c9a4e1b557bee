package evaluator

import "fmt"

// Code identifies an evaluation failure
type Code string

const (
	CodeUnknownCondition   Code = "UnknownCondition"
	CodeLoopCountExceeded  Code = "LoopCountExceeded"
	CodeTraceLimitExceeded Code = "TraceLimitExceeded"
)

// Error is a recoverable evaluation failure attached to the source row of
// the offending node
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

// Is matches any *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is
var (
	ErrUnknownCondition   = &Error{Code: CodeUnknownCondition, Row: -1}
	ErrLoopCountExceeded  = &Error{Code: CodeLoopCountExceeded, Row: -1}
	ErrTraceLimitExceeded = &Error{Code: CodeTraceLimitExceeded, Row: -1}
)

func newError(code Code, row int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Row: row, Message: fmt.Sprintf(format, args...)}
}
