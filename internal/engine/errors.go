package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/advcases/internal/dispatch"
)

// RuntimeError is a request the engine refused or could not complete.
// A failed request leaves storage and the journal untouched.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Label is the message or constructor the request named.
	Label string

	// Err is the underlying cause, if any. Dispatch failures keep their
	// dispatch.Error here so callers can read its code.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNotInstantiated indicates a call before any constructor ran.
	ErrCodeNotInstantiated RuntimeErrorCode = "NOT_INSTANTIATED"

	// ErrCodeAlreadyInstantiated indicates a second constructor call.
	ErrCodeAlreadyInstantiated RuntimeErrorCode = "ALREADY_INSTANTIATED"

	// ErrCodeEngineStopped indicates the Run loop is not accepting requests.
	ErrCodeEngineStopped RuntimeErrorCode = "ENGINE_STOPPED"

	// ErrCodeDispatchFailed indicates the message itself failed.
	ErrCodeDispatchFailed RuntimeErrorCode = "DISPATCH_FAILED"

	// ErrCodeCommitFailed indicates the store rejected the commit.
	ErrCodeCommitFailed RuntimeErrorCode = "COMMIT_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Label != "" {
		msg = fmt.Sprintf("%s (message=%s)", msg, e.Label)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// CodeOf returns the runtime error code carried by err, or "".
func CodeOf(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsNotInstantiated returns true if err is a not-instantiated error.
// Uses errors.As to handle wrapped errors.
func IsNotInstantiated(err error) bool {
	return CodeOf(err) == ErrCodeNotInstantiated
}

// IsAlreadyInstantiated returns true if err is an already-instantiated error.
func IsAlreadyInstantiated(err error) bool {
	return CodeOf(err) == ErrCodeAlreadyInstantiated
}

// IsStopped returns true if the engine was not running to serve the request.
func IsStopped(err error) bool {
	return CodeOf(err) == ErrCodeEngineStopped
}

// ErrorCode returns the most specific code for err: the dispatch code for
// dispatch failures, the runtime code otherwise, and "" for foreign errors.
func ErrorCode(err error) string {
	if code := dispatch.CodeOf(err); code != "" {
		return string(code)
	}
	return string(CodeOf(err))
}

func newRuntimeError(code RuntimeErrorCode, label, msg string, err error) *RuntimeError {
	return &RuntimeError{Code: code, Message: msg, Label: label, Err: err}
}

// NewStoppedError creates a RuntimeError for a request the engine did not run.
func NewStoppedError(label string) *RuntimeError {
	return newRuntimeError(ErrCodeEngineStopped, label, "engine is not running", nil)
}
