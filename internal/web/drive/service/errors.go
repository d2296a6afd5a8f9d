package service

import (
	"fmt"

	errors "github.com/Laisky/errors/v2"
)

// ErrorCode identifies a machine-stable drive error code.
type ErrorCode string

const (
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidArguments ErrorCode = "INVALID_ARGUMENTS"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeInvalidState     ErrorCode = "INVALID_STATE"
	ErrCodeUnspecified      ErrorCode = "UNSPECIFIED_ERROR"
)

// Error captures a typed drive error with a stable code.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error returns the error message.
func (e *Error) Error() string {
	if e == nil {
		return "drive error: <nil>"
	}
	if e.Message == "" {
		return fmt.Sprintf("drive error: %s", e.Code)
	}
	return e.Message
}

// NewError constructs a typed drive error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// AsError extracts a typed drive error from the error chain.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}

// IsCode reports whether the error chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	if typed, ok := AsError(err); ok {
		return typed.Code == code
	}
	return false
}

// CodeOf returns the code carried by the error chain, or
// ErrCodeUnspecified for untyped failures.
func CodeOf(err error) ErrorCode {
	if typed, ok := AsError(err); ok {
		return typed.Code
	}
	return ErrCodeUnspecified
}
