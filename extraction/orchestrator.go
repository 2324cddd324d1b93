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


package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sony/gobreaker"

	"github.com/CSorel-Catalyte/graphdemo/ai"
	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/retry"
)

const (
	// DefaultConcurrency is the default number of concurrent model calls.
	DefaultConcurrency = 2

	// DefaultRequestTimeout bounds a single model call.
	DefaultRequestTimeout = 60 * time.Second
)

// Result is the outcome of extracting one chunk.
// Exactly one of Extraction and Err is set.
type Result struct {
	Chunk      core.Chunk
	Extraction *core.Extraction
	Attempts   int
	Err        error
}

// AttemptObserver is told about every model call.
type AttemptObserver interface {
	ExtractionAttempt(err error)
}

// BreakerConfig configures the circuit breaker around model calls.
type BreakerConfig struct {
	MaxRequests      uint32        // Requests allowed while half-open
	Interval         time.Duration // Window after which closed-state counts reset
	Timeout          time.Duration // Time spent open before probing
	FailureThreshold float64       // Failure ratio that trips the breaker
	MinRequests      uint32        // Requests needed before the ratio is considered
}

// DefaultBreakerConfig returns a breaker that trips at 80% failures over 5 requests.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Orchestrator runs extraction calls on a bounded pool with retry.
type Orchestrator struct {
	extractor   ai.Extractor
	pool        *ants.Pool
	concurrency int
	breakerCfg  BreakerConfig
	breaker     *gobreaker.CircuitBreaker
	policy      retry.Policy
	retryOpts   []retry.Option
	timeout     time.Duration
	observer    AttemptObserver
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithConcurrency sets the number of concurrent model calls.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) error {
		if n < 1 {
			return ErrInvalidConcurrency
		}
		o.concurrency = n
		return nil
	}
}

// WithRequestTimeout sets the per-attempt timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d > 0 {
			o.timeout = d
		}
		return nil
	}
}

// WithRetryPolicy replaces retry.DefaultPolicy.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(o *Orchestrator) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		o.policy = policy
		return nil
	}
}

// WithRetryOptions passes options to every retry tracker, e.g. a fake sleep in tests.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(o *Orchestrator) error {
		o.retryOpts = append(o.retryOpts, opts...)
		return nil
	}
}

// WithBreaker replaces DefaultBreakerConfig.
func WithBreaker(cfg BreakerConfig) Option {
	return func(o *Orchestrator) error {
		o.breakerCfg = cfg
		return nil
	}
}

// WithObserver registers an observer for model calls.
func WithObserver(observer AttemptObserver) Option {
	return func(o *Orchestrator) error {
		o.observer = observer
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an Orchestrator. Call Release when done.
func NewOrchestrator(extractor ai.Extractor, opts ...Option) (*Orchestrator, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	o := &Orchestrator{
		extractor:   extractor,
		concurrency: DefaultConcurrency,
		breakerCfg:  DefaultBreakerConfig(),
		policy:      retry.DefaultPolicy(),
		timeout:     DefaultRequestTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	o.logger = o.logger.With("component", "extraction")

	pool, err := ants.NewPool(o.concurrency)
	if err != nil {
		return nil, err
	}
	o.pool = pool
	o.breaker = o.newBreaker()
	o.retryOpts = append([]retry.Option{retry.WithLogger(o.logger)}, o.retryOpts...)
	return o, nil
}

func (o *Orchestrator) newBreaker() *gobreaker.CircuitBreaker {
	cfg := o.breakerCfg
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "extractor",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			o.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		// Schema errors do not count as failures.
		IsSuccessful: func(err error) bool {
			return err == nil || !ai.IsTransient(err)
		},
	})
}

// Extract runs the extraction of one chunk to completion, retrying transient
// failures. On failure Result.Err wraps ErrChunkFailed, unless ctx ended first,
// in which case it is ctx.Err().
func (o *Orchestrator) Extract(ctx context.Context, chunk core.Chunk) Result {
	result := Result{Chunk: chunk}
	var raw *ai.Extraction

	err := retry.Do(ctx, o.policy, func(ctx context.Context) error {
		result.Attempts++
		out, err := o.call(ctx, chunk.Text)
		if o.observer != nil {
			o.observer.ExtractionAttempt(err)
		}
		if err != nil {
			return err
		}
		raw = out
		return nil
	}, ai.IsTransient, o.retryOpts...)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.Err = ctxErr
			return result
		}
		o.logger.Warn("chunk extraction failed",
			"doc_id", chunk.DocID,
			"chunk", chunk.Index,
			"attempts", result.Attempts,
			"err", err)
		result.Err = fmt.Errorf("%w: chunk %d: %w", ErrChunkFailed, chunk.Index, err)
		return result
	}

	result.Extraction = Normalize(raw, chunk)
	if dropped := result.Extraction.Dropped.Total(); dropped > 0 {
		o.logger.Debug("dropped invalid candidates",
			"doc_id", chunk.DocID,
			"chunk", chunk.Index,
			"dropped", dropped)
	}
	return result
}

// call performs one model request under the per-attempt timeout and the breaker.
func (o *Orchestrator) call(ctx context.Context, text string) (*ai.Extraction, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	out, err := o.breaker.Execute(func() (interface{}, error) {
		return o.extractor.Extract(attemptCtx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ai.ErrTransient, err)
		}
		return nil, err
	}

	extraction, _ := out.(*ai.Extraction)
	if extraction == nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrTransient, ai.ErrEmptyResponse)
	}
	return extraction, nil
}

// Submit runs Extract on the pool and hands the result to done.
// It blocks while every worker is busy.
func (o *Orchestrator) Submit(ctx context.Context, chunk core.Chunk, done func(Result)) error {
	return o.pool.Submit(func() {
		done(o.Extract(ctx, chunk))
	})
}

// BreakerState reports the circuit breaker state ("closed", "half-open" or "open").
func (o *Orchestrator) BreakerState() string {
	return o.breaker.State().String()
}

// Release stops the worker pool.
// The orchestrator should not be used after calling Release.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}
