// Package errors tests for error code definitions and error handling.
package errors

import (
	"errors"
	"strings"
	"testing"
)

func allCodes() []ErrorCode {
	return []ErrorCode{
		ErrInternal, ErrInvalid, ErrNotFound, ErrValidation,
		ErrStorage, ErrStorageVersion, ErrStorageCorrupt,
		ErrNetwork, ErrUnauthorized, ErrHTTP,
		ErrSyncInProgress, ErrSyncOffline, ErrSyncFailed,
		ErrResourceUnknown, ErrPayloadInvalid,
		ErrConfig,
	}
}

// TestErrorCodes_areUnique verifies all error codes are unique and non-empty.
func TestErrorCodes_areUnique(t *testing.T) {
	seen := make(map[ErrorCode]bool)
	for _, code := range allCodes() {
		if code == "" {
			t.Error("ErrorCode should not be empty")
		}
		if seen[code] {
			t.Errorf("ErrorCode %q is duplicated", code)
		}
		seen[code] = true
	}
}

// TestErrorCode_prefix verifies error codes follow the naming convention.
func TestErrorCode_prefix(t *testing.T) {
	for _, code := range allCodes() {
		str := string(code)
		if str != strings.ToUpper(str) {
			t.Errorf("ErrorCode %q should be uppercase", str)
		}
	}
}

// TestAppError_Error verifies error message formatting.
func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name:     "error without underlying error",
			appError: &AppError{Code: ErrInternal, Message: "something failed"},
			want:     "[INTERNAL_ERROR] something failed",
		},
		{
			name:     "error with underlying error",
			appError: &AppError{Code: ErrStorage, Message: "write failed", Err: errors.New("disk full")},
			want:     "[STORAGE_ERROR] write failed: disk full",
		},
		{
			name:     "sync offline error",
			appError: &AppError{Code: ErrSyncOffline, Message: "cannot sync while offline"},
			want:     "[SYNC_OFFLINE] cannot sync while offline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appError.Error()
			if got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestAppError_Unwrap verifies unwrapping of underlying error.
func TestAppError_Unwrap(t *testing.T) {
	underlyingErr := errors.New("underlying error")

	withErr := &AppError{Code: ErrNetwork, Message: "request failed", Err: underlyingErr}
	if withErr.Unwrap() != underlyingErr {
		t.Errorf("Unwrap() = %v, want %v", withErr.Unwrap(), underlyingErr)
	}

	if !errors.Is(withErr, underlyingErr) {
		t.Error("errors.Is should find the wrapped error")
	}

	withoutErr := &AppError{Code: ErrNetwork, Message: "request failed"}
	if withoutErr.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", withoutErr.Unwrap())
	}
}

// TestNew verifies AppError creation.
func TestNew(t *testing.T) {
	err := New(ErrSyncInProgress, "sync already running")
	if err.Code != ErrSyncInProgress {
		t.Errorf("New() code = %q, want %q", err.Code, ErrSyncInProgress)
	}
	if err.Message != "sync already running" {
		t.Errorf("New() message = %q, want 'sync already running'", err.Message)
	}
	if err.Err != nil {
		t.Error("New() should not wrap an error")
	}
}

// TestWrap verifies error wrapping.
func TestWrap(t *testing.T) {
	underlyingErr := errors.New("underlying")

	err := Wrap(ErrStorage, "persist failed", underlyingErr)
	if err.Code != ErrStorage {
		t.Errorf("Wrap() code = %q, want %q", err.Code, ErrStorage)
	}
	if err.Err != underlyingErr {
		t.Errorf("Wrap() underlying error = %v, want %v", err.Err, underlyingErr)
	}
	if !strings.Contains(err.Error(), "underlying") {
		t.Errorf("Error() should contain underlying message, got %q", err.Error())
	}
}

// TestIs verifies error code checking.
func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{
			name: "matching AppError",
			err:  &AppError{Code: ErrUnauthorized, Message: "session expired"},
			code: ErrUnauthorized,
			want: true,
		},
		{
			name: "non-matching AppError",
			err:  &AppError{Code: ErrUnauthorized, Message: "session expired"},
			code: ErrNetwork,
			want: false,
		},
		{
			name: "non-AppError",
			err:  errors.New("standard error"),
			code: ErrInternal,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			code: ErrInternal,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Is(tt.err, tt.code)
			if got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}
