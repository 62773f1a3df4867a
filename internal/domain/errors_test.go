package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrNoFaceDetected,
			expected: "No face detected in the image",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	appErr := &AppError{
		Code:       "TEST",
		Message:    "test",
		StatusCode: 500,
		Err:        underlying,
	}

	if got := appErr.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	if got := ErrNoFaceDetected.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("disk full")
	newErr := ErrStoreIOFailed.WithError(underlying)

	if newErr.Code != ErrStoreIOFailed.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrStoreIOFailed.Code)
	}
	if newErr.StatusCode != ErrStoreIOFailed.StatusCode {
		t.Errorf("StatusCode = %v, want %v", newErr.StatusCode, ErrStoreIOFailed.StatusCode)
	}
	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is should return true for wrapped error")
	}
	if !errors.Is(newErr, ErrStoreIOFailed) {
		t.Errorf("errors.Is should match the sentinel by code")
	}
	if errors.Is(newErr, ErrEmbeddingFailed) {
		t.Errorf("errors.Is should not match a different code")
	}
}

func TestAppError_IsThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("enrol: %w", ErrInvalidInput.WithMessage("person id is empty"))

	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected errors.Is to see INVALID_INPUT through fmt wrap")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("errors.As should match AppError")
	}
	if appErr.Message != "person id is empty" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err        *AppError
		code       string
		statusCode int
	}{
		{ErrInternal, "INTERNAL_ERROR", 500},
		{ErrNotFound, "NOT_FOUND", 404},
		{ErrRateLimitExceeded, "RATE_LIMIT_EXCEEDED", 429},
		{ErrInvalidInput, "INVALID_INPUT", 400},
		{ErrImageAcquisitionFailed, "IMAGE_ACQUISITION_FAILED", 422},
		{ErrNoFaceDetected, "NO_FACE_DETECTED", 422},
		{ErrFaceDetectionFailed, "FACE_DETECTION_FAILED", 502},
		{ErrEmbeddingFailed, "EMBEDDING_FAILED", 500},
		{ErrEmbeddingSizeMismatch, "EMBEDDING_SIZE_MISMATCH", 500},
		{ErrStoreIOFailed, "STORE_IO_FAILED", 500},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %v, want %v", tt.err.StatusCode, tt.statusCode)
			}
		})
	}
}
