package ai

import (
	"context"
	"errors"
	"net"
	"strings"
)

var (
	// ErrTransient marks failures worth retrying.
	ErrTransient = errors.New("ai: transient failure")

	// ErrSchemaInvalid is returned when a model response is not an extraction object.
	ErrSchemaInvalid = errors.New("ai: response does not match extraction schema")

	// ErrEmptyResponse is returned when the model returns no choices.
	ErrEmptyResponse = errors.New("ai: empty model response")
)

var transientMarkers = []string{
	"rate limit",
	"rate_limit",
	"too many requests",
	"429",
	"timeout",
	"timed out",
	"500 internal",
	"502",
	"503",
	"504",
	"bad gateway",
	"service unavailable",
	"temporarily unavailable",
	"connection reset",
	"connection refused",
	"overloaded",
}

// IsTransient reports whether err is worth retrying.
// Timeouts, rate limits, 5xx responses and anything wrapping ErrTransient qualify.
// Cancellation and schema errors never do.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSchemaInvalid) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
