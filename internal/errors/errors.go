package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Snapper error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrInvalidConfig    ErrorCode = "INVALID_CONFIG"    // 400
	ErrInvalidURL       ErrorCode = "INVALID_URL"       // 422
	ErrInvalidTimestamp ErrorCode = "INVALID_TIMESTAMP" // 422
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrWriteFailed      ErrorCode = "WRITE_FAILED"      // 500
	ErrStitchFailed     ErrorCode = "STITCH_FAILED"     // 500
	ErrBrowser          ErrorCode = "BROWSER"           // 502
	ErrCancelled        ErrorCode = "CANCELLED"         // 499
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// SnapError represents a structured error with code, status, and details.
type SnapError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *SnapError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *SnapError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SnapError {
	return &SnapError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidConfig creates a 400 error for a configuration value that cannot be used.
func NewInvalidConfig(field, msg string) *SnapError {
	return &SnapError{
		Code:    ErrInvalidConfig,
		Status:  400,
		Message: fmt.Sprintf("%s: %s", field, msg),
		Details: map[string]any{"field": field},
	}
}

// NewInvalidURL creates a 422 error when a URL token cannot parse the current URL.
func NewInvalidURL(raw string, err error) *SnapError {
	return &SnapError{
		Code:    ErrInvalidURL,
		Status:  422,
		Message: fmt.Sprintf("could not parse url %q", raw),
		Details: map[string]any{"url": raw},
		cause:   err,
	}
}

// NewInvalidTimestamp creates a 422 error for a timestamp that is not a positive integer.
func NewInvalidTimestamp(value any) *SnapError {
	return &SnapError{
		Code:    ErrInvalidTimestamp,
		Status:  422,
		Message: fmt.Sprintf("timestamp must be a positive integer, got %v", value),
		Details: map[string]any{"timestamp": value},
	}
}

// NewNotFound creates a 404 error for when an artifact cannot be found.
func NewNotFound(identifier string) *SnapError {
	return &SnapError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("artifact not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error when an artifact file is missing from disk.
func NewFileNotFound(path string) *SnapError {
	return &SnapError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewWriteFailed creates a 500 error when an artifact file cannot be written.
func NewWriteFailed(path string, err error) *SnapError {
	return &SnapError{
		Code:    ErrWriteFailed,
		Status:  500,
		Message: fmt.Sprintf("failed to write %s: %v", path, err),
		Details: map[string]any{"path": path},
		cause:   err,
	}
}

// NewStitchFailed creates a 500 error when frames cannot be composited.
func NewStitchFailed(err error) *SnapError {
	return &SnapError{
		Code:    ErrStitchFailed,
		Status:  500,
		Message: fmt.Sprintf("stitch failed: %v", err),
		cause:   err,
	}
}

// NewBrowser creates a 502 error for failures reported by the browser backend.
func NewBrowser(op string, err error) *SnapError {
	return &SnapError{
		Code:    ErrBrowser,
		Status:  502,
		Message: fmt.Sprintf("%s: %v", op, err),
		Details: map[string]any{"op": op},
		cause:   err,
	}
}

// NewCancelled creates a 499 error when the caller gave up on an operation.
func NewCancelled(op string, err error) *SnapError {
	return &SnapError{
		Code:    ErrCancelled,
		Status:  499,
		Message: op + " cancelled",
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SnapError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SnapError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a SnapError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *SnapError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}
