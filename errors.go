package neomap

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures raised by the mapping and materialization layers.
type ErrorCode string

const (
	// ErrCodeConfiguration marks a user selection that can never succeed, detected before any graph call.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"
	// ErrCodeInvalidIdentifier marks a label, relationship type or property key that cannot be quoted safely.
	ErrCodeInvalidIdentifier ErrorCode = "INVALID_IDENTIFIER"
	// ErrCodeAmbiguousIdentity marks an upsert without usable match properties.
	ErrCodeAmbiguousIdentity ErrorCode = "AMBIGUOUS_IDENTITY"
	// ErrCodeNotFound marks a lookup or link whose node does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeConnection marks an unreachable or unauthenticated database.
	ErrCodeConnection ErrorCode = "CONNECTION_FAILED"
	// ErrCodeQuery marks a statement rejected by the database.
	ErrCodeQuery ErrorCode = "QUERY_FAILED"
	// ErrCodeResultParsing marks a result whose shape did not match the statement issued.
	ErrCodeResultParsing ErrorCode = "RESULT_PARSING"
)

// Error is a structured error carrying a code, a message and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
// Format: "[CODE] message" or "[CODE] message: cause".
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

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// NewError creates an Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates an Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an Error that wraps cause.
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels usable with errors.Is. Matching is by code, so any Error carrying
// the same code matches regardless of its message.
var (
	// ErrNotFound is returned when no record matches a lookup, or a link endpoint is missing.
	ErrNotFound = NewError(ErrCodeNotFound, "record not found")
	// ErrAmbiguousIdentity is returned by UpsertNode when match properties are empty or null.
	ErrAmbiguousIdentity = NewError(ErrCodeAmbiguousIdentity, "match properties are required to identify a node")
	// ErrConfiguration matches every configuration error.
	ErrConfiguration = NewError(ErrCodeConfiguration, "invalid configuration")
	// ErrInvalidIdentifier matches every rejected label, relationship type or property key.
	ErrInvalidIdentifier = NewError(ErrCodeInvalidIdentifier, "invalid identifier")
	// ErrConnection matches connectivity failures.
	ErrConnection = NewError(ErrCodeConnection, "database unreachable")
)

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
