package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown        ErrorCode = "UNKNOWN"
	ErrInternal       ErrorCode = "INTERNAL"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	ErrNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrPlanInvalid ErrorCode = "PLAN_INVALID"

	// Resource errors
	ErrCapture ErrorCode = "CAPTURE"
	ErrApply   ErrorCode = "APPLY"
	ErrCommand ErrorCode = "COMMAND"
	ErrTimeout ErrorCode = "TIMEOUT"

	// Session errors
	ErrNoSession   ErrorCode = "NO_SESSION"
	ErrSessionOpen ErrorCode = "SESSION_OPEN"

	// Store errors
	ErrStoreWrite   ErrorCode = "STORE_WRITE"
	ErrStoreCorrupt ErrorCode = "STORE_CORRUPT"
)

// SnapbackError represents a structured error with code and details
type SnapbackError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *SnapbackError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *SnapbackError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *SnapbackError) Is(target error) bool {
	var targetErr *SnapbackError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new SnapbackError with the given code and message
func New(code ErrorCode, message string) *SnapbackError {
	return &SnapbackError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new SnapbackError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *SnapbackError {
	return &SnapbackError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a SnapbackError
func Wrap(err error, code ErrorCode, message string) *SnapbackError {
	if err == nil {
		return nil
	}
	return &SnapbackError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *SnapbackError {
	if err == nil {
		return nil
	}
	return &SnapbackError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *SnapbackError) WithDetail(key string, value interface{}) *SnapbackError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code.
// Only the outermost SnapbackError in the chain is consulted.
func IsErrorCode(err error, code ErrorCode) bool {
	var snapErr *SnapbackError
	if errors.As(err, &snapErr) {
		return snapErr.Code == code
	}
	return false
}

// HasErrorCode reports whether any SnapbackError in the chain carries code.
func HasErrorCode(err error, code ErrorCode) bool {
	for err != nil {
		var snapErr *SnapbackError
		if !errors.As(err, &snapErr) {
			return false
		}
		if snapErr.Code == code {
			return true
		}
		err = snapErr.Wrapped
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a SnapbackError
func GetErrorCode(err error) ErrorCode {
	var snapErr *SnapbackError
	if errors.As(err, &snapErr) {
		return snapErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a SnapbackError
func GetErrorDetails(err error) map[string]interface{} {
	var snapErr *SnapbackError
	if errors.As(err, &snapErr) {
		return snapErr.Details
	}
	return nil
}
