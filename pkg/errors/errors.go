package errors

import (
	stdErrors "errors"
	"fmt"
)

// Code classifies every failure the reservation core can return.
type Code string

const (
	// CodeValidation marks caller input that fails field-level checks.
	CodeValidation Code = "VALIDATION_ERROR"
	// CodeNotFound marks a referenced entity absent from its store.
	CodeNotFound Code = "NOT_FOUND"
	// CodeAlreadyExists marks a duplicate identifier on create.
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	// CodeNoAvailability marks a hotel with zero free rooms.
	CodeNoAvailability Code = "NO_AVAILABILITY"
	// CodeNotOnRecord marks a release whose reservation is not in the
	// hotel's occupant list.
	CodeNotOnRecord Code = "NOT_ON_RECORD"
	// CodeStateConflict marks a mutation rejected because it would leave
	// the stores inconsistent (shrinking rooms below occupancy, deleting
	// a referenced entity).
	CodeStateConflict Code = "STATE_CONFLICT"
	// CodeIO marks a store read/write failure.
	CodeIO Code = "IO_FAILURE"
)

// Retryable reports whether an operation failing with the code may succeed
// if replayed unchanged. Only IO failures qualify.
func (c Code) Retryable() bool {
	return c == CodeIO
}

type Error struct {
	code    Code
	message string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeIO
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts a typed Error from an error chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
