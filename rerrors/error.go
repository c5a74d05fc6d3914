// Package rerrors implements the relay core's flat error taxonomy: a
// Code plus a message, optionally wrapping another error. Modeled on the
// teacher's Code/Message/WrappedErr shape and its Is/As/Unwrap methods,
// minus the gRPC/protobuf wire-conversion machinery that shape carried —
// this repo has no gRPC transport anywhere for it to serve.
package rerrors

import (
	"errors"
	"fmt"
)

// Error is a tagged, optionally-wrapped failure.
type Error struct {
	Code       Code
	Message    string
	WrappedErr error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.WrappedErr == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.WrappedErr)
}

// Is reports whether error codes match, walking wrapped *Error chains.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	var te *Error
	if errors.As(target, &te) {
		if e.Code == te.Code {
			return true
		}
	}
	if unwrapped, ok := e.WrappedErr.(*Error); ok {
		return unwrapped.Is(target)
	}
	return false
}

// As supports errors.As against a *rerrors.Error target or a wrapped error.
func (e *Error) As(target interface{}) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(**Error); ok {
		*targetErr = e
		return true
	}
	if e.WrappedErr != nil {
		return errors.As(e.WrappedErr, target)
	}
	return false
}

// Unwrap returns the wrapped error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.WrappedErr
}

// New constructs an Error. If the last argument is an error, it is captured
// as WrappedErr and excluded from message formatting; remaining arguments
// are applied as fmt.Sprintf verbs against message.
func New(code Code, message string, params ...interface{}) *Error {
	var wrapped error

	if len(params) > 0 {
		last := params[len(params)-1]
		if err, ok := last.(error); ok {
			wrapped = err
			params = params[:len(params)-1]
		}
	}

	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}

	return &Error{Code: code, Message: message, WrappedErr: wrapped}
}

// Is is the package-level convenience wrapping the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is the package-level convenience wrapping the standard library.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// CodeOf extracts the Code from err if it is (or wraps) a *Error, and
// Unknown otherwise.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unknown
}
