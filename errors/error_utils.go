// Package errors provides utilities for categorizing and handling errors in the archive service.
package errors

import (
	"context"
	"errors"
)

// IsRetryableError determines if an error is transient and the operation could be retried by the caller.
// The archive service itself never retries; this is used to label failures in logs.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Check if context was cancelled - not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_SERVICE_UNAVAILABLE,
			ERR_STORAGE_UNAVAILABLE:
			return true
		}
	}

	return false
}

// IsContextError determines if an error is related to context cancellation or deadline.
//
// Parameters:
//   - err: Error to check
//
// Returns:
//   - bool: true if error is context-related
func IsContextError(err error) bool {
	if err == nil {
		return false
	}

	if err == context.Canceled || err == context.DeadlineExceeded {
		return true
	}

	var tErr *Error
	if As(err, &tErr) {
		if tErr.Code() == ERR_CONTEXT_CANCELED || tErr.Code() == ERR_CONTEXT {
			return true
		}
	}

	if Is(err, context.Canceled) || Is(err, context.DeadlineExceeded) {
		return true
	}

	return false
}

// IsNotFoundError reports whether err means the requested item does not exist,
// whichever store produced it.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_NOT_FOUND, ERR_BLOCK_NOT_FOUND, ERR_BLOB_NOT_FOUND:
			return true
		}
	}

	return Is(err, ErrNotFound) || Is(err, ErrBlockNotFound) || Is(err, ErrBlobNotFound)
}

// GetErrorCategory returns a string representing the category of the error.
// This is useful for logging and metrics.
func GetErrorCategory(err error) string {
	if err == nil {
		return "none"
	}

	if IsContextError(err) {
		return "context"
	}

	var tErr *Error
	if As(err, &tErr) {
		code := tErr.Code()
		switch {
		case code == ERR_INVALID_PARAM || code == ERR_INVALID_ARGUMENT:
			return "validation"
		case code >= 10 && code <= 19:
			return "block"
		case code >= 20 && code <= 29:
			return "service"
		case code >= 30 && code <= 39:
			return "storage"
		}
	}

	return "unknown"
}
