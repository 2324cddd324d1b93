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


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/CSorel-Catalyte/graphdemo/ai"
	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/retry"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

// CheckpointName names the checkpoint a run records its progress under.
const CheckpointName = "reembed"

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of entities embedded per call
	BatchSize int

	// ReportInterval is how often to report progress (number of entities)
	ReportInterval int

	// Retry bounds the attempts made for each embedding call
	Retry retry.Policy
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: DefaultBatchSize,
		Retry:          retry.DefaultPolicy(),
	}
}

// Reembedder re-embeds every entity in the graph.
type Reembedder struct {
	entities    storage.EntityRepository
	vectors     storage.VectorIndex
	embedder    ai.Embedder
	checkpoints storage.CheckpointRepository
	config      Config
	retryOpts   []retry.Option
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Reembedder.
type Option func(*Reembedder)

// WithConfig sets the batch, progress and retry settings.
func WithConfig(cfg Config) Option {
	return func(r *Reembedder) {
		r.config = cfg
	}
}

// WithCheckpoints makes runs resumable through repo.
func WithCheckpoints(repo storage.CheckpointRepository) Option {
	return func(r *Reembedder) {
		r.checkpoints = repo
	}
}

// WithRetryOptions passes options to every retry.Do call, e.g. retry.WithSleep in tests.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(r *Reembedder) {
		r.retryOpts = opts
	}
}

// WithProgress sets where progress output is written (typically os.Stderr).
// Default discards it.
func WithProgress(w io.Writer) Option {
	return func(r *Reembedder) {
		r.progress = w
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reembedder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReembedder creates a new reembedder.
func NewReembedder(entities storage.EntityRepository, vectors storage.VectorIndex, embedder ai.Embedder, opts ...Option) (*Reembedder, error) {
	if entities == nil {
		return nil, ErrEntityRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Reembedder{
		entities: entities,
		vectors:  vectors,
		embedder: embedder,
		config:   DefaultConfig(),
		progress: io.Discard,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.config.Retry.Validate(); err != nil {
		return nil, err
	}
	r.logger = r.logger.With("component", "reembed")
	return r, nil
}

// Run re-embeds every entity and returns how many were processed by this run.
// With checkpoints configured, a run resumes after the last batch a previous
// run finished, and the checkpoint is removed once every entity is done.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	total, err := r.entities.CountEntities(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No entities found in database (0 entities)\n")
		return 0, nil
	}

	checkpoint, err := r.loadCheckpoint(ctx)
	if err != nil {
		return 0, err
	}
	if checkpoint.Processed > 0 {
		r.logger.Info("resuming reembedding", "after", checkpoint.LastID, "processed", checkpoint.Processed)
	}

	report := newRunReport(r.progress, total, r.config.ReportInterval, checkpoint)
	report.begin(r.config.BatchSize, checkpoint.LastID)

	processor := NewBatchProcessor(r.entities, r.vectors, r.embedder, r.config.Retry, r.retryOpts...)
	iterator := NewEntityIterator(r.entities, r.config.BatchSize)

	processed := 0
	err = iterator.ForEach(ctx, checkpoint.LastID, func(entities []*core.Entity) error {
		if err := processor.Process(ctx, entities); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(entities)
		checkpoint.LastID = entities[len(entities)-1].Id
		checkpoint.Processed += len(entities)
		if err := r.saveCheckpoint(ctx, checkpoint); err != nil {
			return err
		}
		report.batch(checkpoint)
		return nil
	})
	if err != nil {
		return processed, err
	}

	if r.checkpoints != nil {
		if err := r.checkpoints.DeleteCheckpoint(ctx, CheckpointName); err != nil {
			r.logger.Warn("failed to clear checkpoint", "err", err)
		}
	}

	elapsed := report.finish(processed)
	r.logger.Info("reembedding complete", "processed", processed, "elapsed", elapsed)

	return processed, nil
}

func (r *Reembedder) loadCheckpoint(ctx context.Context) (*core.Checkpoint, error) {
	if r.checkpoints == nil {
		return &core.Checkpoint{Name: CheckpointName}, nil
	}
	checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, CheckpointName)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if checkpoint == nil {
		checkpoint = &core.Checkpoint{Name: CheckpointName}
	}
	return checkpoint, nil
}

func (r *Reembedder) saveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if r.checkpoints == nil {
		return nil
	}
	if err := r.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
