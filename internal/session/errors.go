package session

import (
	"errors"
	"fmt"
)

// Common session errors
var (
	// ErrNotConfigured indicates Generate was called before Configure.
	ErrNotConfigured = errors.New("no performer configured")

	// ErrNoAudio indicates a generation finished without producing a file.
	ErrNoAudio = errors.New("no audio was generated")

	// ErrBusy indicates a generation is already running on the session.
	ErrBusy = errors.New("a generation is already in progress")
)

// ErrorCode identifies the failing stage of an operation.
type ErrorCode string

const (
	CodeConfig    ErrorCode = "CONFIG"
	CodeTransport ErrorCode = "TRANSPORT"
	CodeNoAudio   ErrorCode = "NO_AUDIO"
	CodeIO        ErrorCode = "IO"
)

// Error is a session error with a stage code and optional context.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel that corresponds to the error code, so
// errors.Is(err, ErrNoAudio) holds even when Cause is a transport error.
func (e *Error) Is(target error) bool {
	return e.Code == CodeNoAudio && target == ErrNoAudio
}

// newError creates a new session error.
func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsTransport reports whether err, or any error it wraps, is a realtime
// connection failure. Failed generations carry CodeNoAudio with the
// connection failure as their cause.
func IsTransport(err error) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if se, ok := err.(*Error); ok && se.Code == CodeTransport { //nolint:errorlint
			return true
		}
	}
	return false
}
