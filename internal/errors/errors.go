// Package errors defines the structured error type shared across the
// module. Callers branch on codes, not message text, and user-facing
// surfaces can show the attached suggestion.
package errors

import (
	"errors"
	"fmt"
)

// Codes carried by EngramError.
const (
	CodeInvalidInput   = "INVALID_INPUT"
	CodeMemoryNotFound = "MEMORY_NOT_FOUND"
	CodeStorageFailed  = "STORAGE_FAILED"
	CodeAgentStopped   = "AGENT_STOPPED"
	CodeConfigInvalid  = "CONFIG_INVALID"
	CodeScopeNotFound  = "SCOPE_NOT_FOUND"
)

// EngramError pairs a machine-readable code with a human-readable message
// and, optionally, a suggested fix.
type EngramError struct {
	Code       string // stable identifier callers can match on
	Message    string // what went wrong
	Suggestion string // what the operator can do about it
	Err        error  // underlying cause, if any
}

func (e *EngramError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
}

func (e *EngramError) Unwrap() error {
	return e.Err
}

// New builds an EngramError from a code and message.
func New(code, message string) *EngramError {
	return &EngramError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code, message string, err error) *EngramError {
	return &EngramError{Code: code, Message: message, Err: err}
}

// WithSuggestion sets the suggestion and returns the error for chaining.
func (e *EngramError) WithSuggestion(suggestion string) *EngramError {
	e.Suggestion = suggestion
	return e
}

// Is matches two EngramErrors by code, so errors.Is(err, New(code, ""))
// works as a code test.
func (e *EngramError) Is(target error) bool {
	var other *EngramError
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// Is reports whether err carries the given code, unwrapping as needed.
func Is(err error, code string) bool {
	return AsCode(err) == code
}

func from(err error) (*EngramError, bool) {
	var e *EngramError
	ok := errors.As(err, &e)
	return e, ok
}

// AsCode returns the code carried by err, or "" for foreign errors.
func AsCode(err error) string {
	if e, ok := from(err); ok {
		return e.Code
	}
	return ""
}

// Suggestion returns the suggested fix carried by err, if any.
func Suggestion(err error) string {
	if e, ok := from(err); ok {
		return e.Suggestion
	}
	return ""
}

// IsNotFound reports whether err carries the MEMORY_NOT_FOUND code.
func IsNotFound(err error) bool {
	return AsCode(err) == CodeMemoryNotFound
}

// IsStopped reports whether err carries the AGENT_STOPPED code.
func IsStopped(err error) bool {
	return AsCode(err) == CodeAgentStopped
}
