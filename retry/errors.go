package retry

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when MaxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidPolicy is returned for negative delays or jitter
	ErrInvalidPolicy = errors.New("retry policy delays and jitter must not be negative")

	// ErrExhausted is returned when every allowed attempt failed
	ErrExhausted = errors.New("retry attempts exhausted")

	// ErrNotReady is returned when an attempt starts from a non-ready state
	ErrNotReady = errors.New("retry tracker is not ready")
)
