// Package errors defines the coded errors shared by the ideconfy packages.
//
// Every failure that a caller may act on carries a [Code]. The CLI prints
// [UserMessage]; the HTTP API turns the code into a status and returns it
// in the JSON error body.
//
// # Codes
//
//   - INVALID_INPUT, INVALID_CONFIG, INVALID_FORMAT, INVALID_PATH: the
//     request or configuration is wrong; retrying will not help
//   - NOT_FOUND: unknown canvas or item
//   - INVALID_TRANSITION: the item's state does not accept the event
//   - CAPACITY_EXCEEDED: a bounded collection is full
//   - INTERNAL_ERROR, UNSUPPORTED: everything else
//
// A full canvas or a short drag is not an error. The canvas reports both as
// an ordinary outcome with a reason.
//
// # Usage
//
//	if size > identicon.MaxSize() {
//	    return errors.New(errors.ErrCodeInvalidConfig, "grid size %d exceeds %d", size, identicon.MaxSize())
//	}
//
//	if err := png.Encode(w, img); err != nil {
//	    return errors.Wrap(errors.ErrCodeInternal, err, "encode png")
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a machine-readable error category.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeInvalidTransition Code = "INVALID_TRANSITION"
	ErrCodeCapacityExceeded  Code = "CAPACITY_EXCEEDED"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Invalid reports whether c is one of the INVALID_* validation codes.
func (c Code) Invalid() bool {
	return strings.HasPrefix(string(c), "INVALID_") && c != ErrCodeInvalidTransition
}

// Error pairs a Code with a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New returns an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with a cause kept for errors.Is and errors.As.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// when there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost *Error, without its
// code or cause, or err.Error() for other errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
