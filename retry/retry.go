// Copyright 2026 The graphdemo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// State is a retry tracker state.
type State int

const (
	// Ready means another attempt may start.
	Ready State = iota
	// Waiting means the tracker is sleeping before the next attempt.
	Waiting
	// Succeeded is terminal: the last attempt succeeded.
	Succeeded
	// Exhausted is terminal: every allowed attempt failed with a retryable error.
	Exhausted
	// Aborted is terminal: a permanent error or cancellation stopped retrying.
	Aborted
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Waiting:
		return "waiting"
	case Succeeded:
		return "succeeded"
	case Exhausted:
		return "exhausted"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further attempts are allowed.
func (s State) Terminal() bool {
	return s == Succeeded || s == Exhausted || s == Aborted
}

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter adds up to Jitter*delay of random extra wait.
	Jitter float64
}

// DefaultPolicy returns 3 attempts with 1s base delay capped at 60s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    60 * time.Second,
		Jitter:      0.2,
	}
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if p.BaseDelay < 0 || p.MaxDelay < 0 || p.Jitter < 0 {
		return ErrInvalidPolicy
	}
	return nil
}

// Backoff returns the delay after the given number of failures, before jitter.
// It is BaseDelay*2^(failures-1) capped at MaxDelay.
func (p Policy) Backoff(failures int) time.Duration {
	if failures < 1 {
		return 0
	}
	delay := p.BaseDelay
	for i := 1; i < failures; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Tracker.
type Option func(*Tracker)

// WithSleep replaces the timer-based sleep.
func WithSleep(sleep SleepFunc) Option {
	return func(t *Tracker) {
		if sleep != nil {
			t.sleep = sleep
		}
	}
}

// WithRand replaces the jitter source. fn must return values in [0,1).
func WithRand(fn func() float64) Option {
	return func(t *Tracker) {
		if fn != nil {
			t.rand = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Tracker is the state machine behind a single retried operation.
// A Tracker is not safe for concurrent use.
type Tracker struct {
	policy   Policy
	state    State
	attempts int
	lastErr  error
	sleep    SleepFunc
	rand     func() float64
	logger   *slog.Logger
}

// NewTracker creates a tracker in the Ready state.
func NewTracker(policy Policy, opts ...Option) (*Tracker, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	t := &Tracker{
		policy: policy,
		state:  Ready,
		sleep:  timerSleep,
		rand:   rand.Float64,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// State returns the current state.
func (t *Tracker) State() State {
	return t.state
}

// Attempts returns how many attempts have started.
func (t *Tracker) Attempts() int {
	return t.attempts
}

// Err returns the last recorded failure.
func (t *Tracker) Err() error {
	return t.lastErr
}

// Begin starts an attempt. It fails once the tracker is terminal.
func (t *Tracker) Begin() error {
	if t.state != Ready {
		return fmt.Errorf("%w: %s", ErrNotReady, t.state)
	}
	t.attempts++
	return nil
}

// Succeed moves the tracker to Succeeded.
func (t *Tracker) Succeed() {
	t.state = Succeeded
	t.lastErr = nil
}

// Fail records a failed attempt.
// A non-retryable error aborts. A retryable error either exhausts the tracker
// or waits the backoff delay and returns to Ready. The returned error is nil
// only when another attempt may start.
func (t *Tracker) Fail(ctx context.Context, err error, retryable bool) error {
	t.lastErr = err

	if !retryable {
		t.state = Aborted
		return err
	}

	if t.attempts >= t.policy.MaxAttempts {
		t.state = Exhausted
		return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, t.attempts, err)
	}

	delay := t.Delay()
	t.state = Waiting
	t.logger.Debug("attempt failed, backing off",
		"attempt", t.attempts,
		"max_attempts", t.policy.MaxAttempts,
		"delay", delay,
		"err", err)

	if serr := t.sleep(ctx, delay); serr != nil {
		t.state = Aborted
		t.lastErr = serr
		return serr
	}

	t.state = Ready
	return nil
}

// Delay returns the wait before the next attempt, including jitter.
func (t *Tracker) Delay() time.Duration {
	delay := t.policy.Backoff(t.attempts)
	if t.policy.Jitter > 0 && delay > 0 {
		delay += time.Duration(t.rand() * t.policy.Jitter * float64(delay))
	}
	return delay
}

// Do runs op until it succeeds, fails permanently, or the policy is exhausted.
// retryable decides which errors are retried; nil retries every error.
// Exhaustion returns an error wrapping both ErrExhausted and the last failure.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error, retryable func(error) bool, opts ...Option) error {
	t, err := NewTracker(policy, opts...)
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.Begin(); err != nil {
			return err
		}

		opErr := op(ctx)
		if opErr == nil {
			if t.attempts > 1 {
				t.logger.Debug("operation succeeded after retry", "attempt", t.attempts)
			}
			t.Succeed()
			return nil
		}

		if ctx.Err() != nil {
			t.state = Aborted
			return ctx.Err()
		}

		retry := retryable == nil || retryable(opErr)
		if ferr := t.Fail(ctx, opErr, retry); ferr != nil {
			return ferr
		}
	}
}

func timerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
