package gallery

import (
	"errors"
	"fmt"
)

// Domain error codes - transport layer maps these to HTTP status codes.
const (
	EINTERNAL     = "internal"            // 500 - Internal server error
	EINVALID      = "invalid"             // 400 - Missing or malformed input
	ENOTFOUND     = "not_found"           // 404 - Unknown photo id
	EUNAUTHORIZED = "unauthorized"        // 401 - Bad or missing admin credential
	EUNAVAILABLE  = "backend_unavailable" // 503 - Remote storage not configured
	EUPLOAD       = "upload_failed"       // 502 - Remote upload call failed
	EPERSIST      = "persistence_failed"  // 500 - Metadata write failed
	ESTOREREAD    = "store_read"          // Metadata unreadable; stores degrade to empty
	ERATELIMIT    = "rate_limit"          // 429 - Too many requests
)

// Error represents an application-specific error.
type Error struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Fields contains field-specific validation errors.
	Fields map[string]string `json:"fields,omitempty"`

	// Err is the underlying error (not exposed to clients).
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new application error with a formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an underlying error with application context.
func WrapError(code string, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ErrorWithFields creates a validation error with field-specific messages.
func ErrorWithFields(fields map[string]string) *Error {
	return &Error{
		Code:    EINVALID,
		Message: "Validation failed",
		Fields:  fields,
	}
}

// ErrorCode extracts the error code from an error.
// Returns EINTERNAL if the error is not an *Error.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage extracts the user-safe message from an error.
// Returns a generic message if the error is not an *Error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "An internal error occurred."
}

// ErrorFields extracts field-specific errors from a validation error.
// Returns nil if the error has no field errors.
func ErrorFields(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// IsErrorCode checks if an error has the specified error code.
func IsErrorCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// NotFound creates a not found error.
func NotFound(format string, args ...any) *Error {
	return Errorf(ENOTFOUND, format, args...)
}

// Invalid creates a validation error.
func Invalid(format string, args ...any) *Error {
	return Errorf(EINVALID, format, args...)
}

// Unauthorized creates an authentication error.
func Unauthorized(format string, args ...any) *Error {
	return Errorf(EUNAUTHORIZED, format, args...)
}

// Unavailable reports that remote image storage is not configured.
func Unavailable(format string, args ...any) *Error {
	return Errorf(EUNAVAILABLE, format, args...)
}

// UploadFailed wraps a failed call to the remote image backend.
func UploadFailed(message string, err error) *Error {
	return WrapError(EUPLOAD, message, err)
}

// PersistFailed wraps a failed metadata write.
func PersistFailed(message string, err error) *Error {
	return WrapError(EPERSIST, message, err)
}

// StoreRead wraps a metadata read or parse failure.
func StoreRead(message string, err error) *Error {
	return WrapError(ESTOREREAD, message, err)
}

// Internal creates an internal error, wrapping the underlying cause.
func Internal(message string, err error) *Error {
	return WrapError(EINTERNAL, message, err)
}
