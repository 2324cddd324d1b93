package server

import "errors"

var (
	// ErrServiceRequired is returned when a service is not provided.
	ErrServiceRequired = errors.New("service required")

	// ErrInvalidMaxBody is returned when the request body limit is not positive.
	ErrInvalidMaxBody = errors.New("max body bytes must be positive")
)
