package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
)

func TestSnapError_Error(t *testing.T) {
	err := &SnapError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "artifact not found",
	}

	expected := "NOT_FOUND: artifact not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("pattern is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "pattern is required" {
		t.Errorf("Message = %q, want %q", err.Message, "pattern is required")
	}
}

func TestNewInvalidConfig(t *testing.T) {
	err := NewInvalidConfig("fullscreen_algorithm", `must be "resize" or "stitch"`)

	if err.Code != ErrInvalidConfig {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidConfig)
	}
	if err.Details["field"] != "fullscreen_algorithm" {
		t.Errorf("Details[field] = %v, want fullscreen_algorithm", err.Details["field"])
	}
}

func TestNewInvalidURL(t *testing.T) {
	cause := fmt.Errorf("missing host")
	err := NewInvalidURL("http:///example.com", cause)

	if err.Code != ErrInvalidURL {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidURL)
	}
	if err.Details["url"] != "http:///example.com" {
		t.Errorf("Details[url] = %v", err.Details["url"])
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected error to unwrap to its cause")
	}
}

func TestNewInvalidTimestamp(t *testing.T) {
	err := NewInvalidTimestamp("foo")

	if err.Code != ErrInvalidTimestamp {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidTimestamp)
	}
	if err.Status != 422 {
		t.Errorf("Status = %d, want 422", err.Status)
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("01ABC")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Details["identifier"] != "01ABC" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "01ABC")
	}
}

func TestNewFileNotFound(t *testing.T) {
	err := NewFileNotFound("/tmp/x.html")

	if err.Code != ErrFileNotFound || err.Status != 404 {
		t.Errorf("Code/Status = %q/%d, want %q/404", err.Code, err.Status, ErrFileNotFound)
	}
}

func TestNewCancelled(t *testing.T) {
	err := NewCancelled("screenshot_capture", context.Canceled)

	if err.Code != ErrCancelled || err.Message != "screenshot_capture cancelled" {
		t.Errorf("got %q %q", err.Code, err.Message)
	}
	if !stderrors.Is(err, context.Canceled) {
		t.Error("expected error to unwrap to context.Canceled")
	}
}

func TestNewWriteFailed(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewWriteFailed("/tmp/x.png", cause)

	if err.Code != ErrWriteFailed {
		t.Errorf("Code = %q, want %q", err.Code, ErrWriteFailed)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected error to unwrap to its cause")
	}
}

func TestNewInternal_NilError(t *testing.T) {
	err := NewInternal(nil)

	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching code", NewNotFound("x"), ErrNotFound, true},
		{"different code", NewNotFound("x"), ErrInternal, false},
		{"wrapped", fmt.Errorf("ctx: %w", NewStitchFailed(fmt.Errorf("decode"))), ErrStitchFailed, true},
		{"plain error", fmt.Errorf("plain"), ErrInternal, false},
		{"nil", nil, ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}
