// Package errors provides structured error types for gitdraw.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (bad ref names, bad config)
//   - NOT_FOUND_*: A ref or commit id that does not resolve
//   - INVALID_STATE: The operation is not allowed in the current ref state
//   - INTERNAL_*: Unexpected internal errors
//
// Codes are grouped into a small set of [Kind] values that mirror the
// failure taxonomy callers actually branch on: validation, not found,
// invalid state and internal.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidRef, "branch %q already exists", name)
//	if errors.KindOf(err) == errors.KindValidation {
//	    // Ask the user for another name
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidConfig, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidRef     Code = "INVALID_REF"
	ErrCodeInvalidCommit  Code = "INVALID_COMMIT"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidCommand Code = "INVALID_COMMAND"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeRefNotFound  Code = "NOT_FOUND_REF"
	ErrCodeViewNotFound Code = "NOT_FOUND_VIEW"

	// State errors
	ErrCodeInvalidState Code = "INVALID_STATE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Kind is the coarse failure category of an error code.
type Kind int

// Failure categories.
const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindInvalidState
	KindInternal
)

// String returns the name of the kind as used in logs and API responses.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

var codeKinds = map[Code]Kind{
	ErrCodeInvalidInput:   KindValidation,
	ErrCodeInvalidRef:     KindValidation,
	ErrCodeInvalidCommit:  KindValidation,
	ErrCodeInvalidConfig:  KindValidation,
	ErrCodeInvalidCommand: KindValidation,
	ErrCodeInvalidFormat:  KindValidation,
	ErrCodeNotFound:       KindNotFound,
	ErrCodeRefNotFound:    KindNotFound,
	ErrCodeViewNotFound:   KindNotFound,
	ErrCodeInvalidState:   KindInvalidState,
	ErrCodeInternal:       KindInternal,
	ErrCodeUnsupported:    KindInternal,
}

// Kind returns the failure category of the code.
func (c Code) Kind() Kind {
	return codeKinds[c]
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Validation creates an INVALID_INPUT error.
func Validation(format string, args ...any) *Error {
	return New(ErrCodeInvalidInput, format, args...)
}

// NotFound creates a NOT_FOUND_REF error for a ref that does not resolve.
func NotFound(ref string) *Error {
	return New(ErrCodeRefNotFound, "cannot find commit: %s", ref)
}

// InvalidState creates an INVALID_STATE error.
func InvalidState(format string, args ...any) *Error {
	return New(ErrCodeInvalidState, format, args...)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// KindOf returns the failure category of err, or KindUnknown when err
// carries no code.
func KindOf(err error) Kind {
	return GetCode(err).Kind()
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
