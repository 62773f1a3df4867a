package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same Code, so a sentinel still
// matches after WithError or WithMessage.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    msg,
		StatusCode: e.StatusCode,
		Err:        e.Err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	// Pipeline errors
	ErrInvalidInput = &AppError{
		Code:       "INVALID_INPUT",
		Message:    "Invalid input",
		StatusCode: 400,
	}

	ErrImageAcquisitionFailed = &AppError{
		Code:       "IMAGE_ACQUISITION_FAILED",
		Message:    "Could not fetch or decode the image",
		StatusCode: 422,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	ErrFaceDetectionFailed = &AppError{
		Code:       "FACE_DETECTION_FAILED",
		Message:    "Face detector failed",
		StatusCode: 502,
	}

	ErrEmbeddingFailed = &AppError{
		Code:       "EMBEDDING_FAILED",
		Message:    "Could not compute face embedding",
		StatusCode: 500,
	}

	ErrEmbeddingSizeMismatch = &AppError{
		Code:       "EMBEDDING_SIZE_MISMATCH",
		Message:    "Embedding model output has unexpected size",
		StatusCode: 500,
	}

	ErrStoreIOFailed = &AppError{
		Code:       "STORE_IO_FAILED",
		Message:    "Gallery store read or write failed",
		StatusCode: 500,
	}
)
