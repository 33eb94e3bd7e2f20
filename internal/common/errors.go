// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
)

// Common application errors.
var (
	// Storage errors.
	ErrStoreUnavailable  = errors.New("keyword store unavailable")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Classification errors.
	ErrEmbeddingUnavailable = errors.New("embedding table unavailable")
	ErrGenerativeTransport  = errors.New("generative service failure")
	ErrEmptyInput           = errors.New("input is empty after normalization")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// IsConfigError reports whether err is a fatal configuration problem.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrMissingConfig)
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	// Caller cancellation and deadline expiry are final for the cascade.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, ErrRateLimit) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
