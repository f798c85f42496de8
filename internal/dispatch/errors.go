package dispatch

import (
	"errors"
	"fmt"
)

// Error is a failed dispatch. The call had no effect on storage.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Label is the message or constructor being dispatched, if known.
	Label string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes dispatch errors.
type ErrorCode string

const (
	// ErrCodeUnknownMessage indicates no message has the given label or selector.
	ErrCodeUnknownMessage ErrorCode = "UNKNOWN_MESSAGE"

	// ErrCodeDecodeFailed indicates the SCALE input did not decode as the
	// message's arguments.
	ErrCodeDecodeFailed ErrorCode = "DECODE_FAILED"

	// ErrCodeTrailingInput indicates bytes were left after the arguments.
	ErrCodeTrailingInput ErrorCode = "TRAILING_INPUT"

	// ErrCodeInvalidArgs indicates JSON arguments that do not fit the message.
	ErrCodeInvalidArgs ErrorCode = "INVALID_ARGS"

	// ErrCodeStorageFailed indicates the backend failed or held corrupt cells.
	ErrCodeStorageFailed ErrorCode = "STORAGE_FAILED"

	// ErrCodeTrapped indicates the contract refused to complete the call.
	ErrCodeTrapped ErrorCode = "TRAPPED"
)

// Error implements the error interface.
func (e *Error) Error() string {
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
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, label, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Label: label, Err: err}
}

// CodeOf returns the dispatch error code carried by err, or "" if err is not
// a dispatch error.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsUnknownMessage returns true if err is an unknown message error.
// Uses errors.As to handle wrapped errors.
func IsUnknownMessage(err error) bool {
	return CodeOf(err) == ErrCodeUnknownMessage
}

// IsDecodeFailed returns true if the input failed to decode.
func IsDecodeFailed(err error) bool {
	return CodeOf(err) == ErrCodeDecodeFailed
}

// IsInvalidArgs returns true if JSON arguments were rejected.
func IsInvalidArgs(err error) bool {
	return CodeOf(err) == ErrCodeInvalidArgs
}
