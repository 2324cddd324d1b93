package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"wrapped transient", fmt.Errorf("call: %w", ErrTransient), true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"rate limit", errors.New("API returned unexpected status code: 429: Rate limit reached"), true},
		{"server error", errors.New("status code: 503 Service Unavailable"), true},
		{"schema", fmt.Errorf("%w: bad json", ErrSchemaInvalid), false},
		{"schema beats marker", fmt.Errorf("%w: timeout field missing", ErrSchemaInvalid), false},
		{"auth", errors.New("status code: 401 invalid api key"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
