package types

import "fmt"

// ErrorCode represents a unified error code across the framework.
type ErrorCode string

// Pipeline error codes. Configuration and problem-lookup failures are
// fatal for a run; invoke and parse failures are recovered locally by the
// stages with default records.
const (
	ErrConfiguration   ErrorCode = "CONFIGURATION"
	ErrProblemNotFound ErrorCode = "PROBLEM_NOT_FOUND"
	ErrInvokeFailed    ErrorCode = "INVOKE_FAILED"
	ErrParseFailed     ErrorCode = "PARSE_FAILED"
	ErrStoreFailed     ErrorCode = "STORE_FAILED"
	ErrInternalError   ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and an optional
// underlying cause.
type Error struct {
	Code        ErrorCode `json:"code"`
	Message     string    `json:"message"`
	Participant string    `json:"participant,omitempty"`
	Cause       error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithParticipant tags the error with the participant it concerns.
func (e *Error) WithParticipant(id string) *Error {
	e.Participant = id
	return e
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsFatal reports whether the error should abort the run instead of being
// absorbed into a default record.
func IsFatal(err error) bool {
	switch GetErrorCode(err) {
	case ErrConfiguration, ErrProblemNotFound:
		return true
	}
	return false
}
