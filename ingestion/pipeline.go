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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/CSorel-Catalyte/graphdemo/admission"
	"github.com/CSorel-Catalyte/graphdemo/broadcast"
	"github.com/CSorel-Catalyte/graphdemo/canonical"
	"github.com/CSorel-Catalyte/graphdemo/chunker"
	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/extraction"
	"github.com/CSorel-Catalyte/graphdemo/salience"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

// Pipeline turns documents into graph updates.
// Different documents may be ingested concurrently.
type Pipeline struct {
	chunker      *chunker.Chunker
	orchestrator *extraction.Orchestrator
	engine       *canonical.Engine
	filter       *admission.Filter
	scorer       *salience.Scorer
	publisher    broadcast.Publisher
	mirror       storage.GraphStore
	observer     Observer
	nodeCap      int
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPublisher sets where graph updates are broadcast.
// By default updates are discarded.
func WithPublisher(publisher broadcast.Publisher) Option {
	return func(p *Pipeline) error {
		if publisher != nil {
			p.publisher = publisher
		}
		return nil
	}
}

// WithMirror writes every touched entity and relation to a graph store
// after the chunk is applied.
func WithMirror(mirror storage.GraphStore) Option {
	return func(p *Pipeline) error {
		p.mirror = mirror
		return nil
	}
}

// WithObserver sets the event observer.
func WithObserver(observer Observer) Option {
	return func(p *Pipeline) error {
		if observer != nil {
			p.observer = observer
		}
		return nil
	}
}

// WithNodeCap limits the newly created nodes published per chunk.
// Default is broadcast.DefaultNodeCap.
func WithNodeCap(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("node cap must be positive, got %d", n)
		}
		p.nodeCap = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a pipeline from its stages.
// The pipeline does not own the orchestrator; the caller releases it.
func NewPipeline(
	chunks *chunker.Chunker,
	orchestrator *extraction.Orchestrator,
	engine *canonical.Engine,
	filter *admission.Filter,
	scorer *salience.Scorer,
	opts ...Option,
) (*Pipeline, error) {
	switch {
	case chunks == nil:
		return nil, ErrChunkerRequired
	case orchestrator == nil:
		return nil, ErrOrchestratorRequired
	case engine == nil:
		return nil, ErrEngineRequired
	case filter == nil:
		return nil, ErrFilterRequired
	case scorer == nil:
		return nil, ErrScorerRequired
	}

	p := &Pipeline{
		chunker:      chunks,
		orchestrator: orchestrator,
		engine:       engine,
		filter:       filter,
		scorer:       scorer,
		publisher:    broadcast.PublisherFunc(func(context.Context, broadcast.Message) error { return nil }),
		observer:     noopObserver{},
		nodeCap:      broadcast.DefaultNodeCap,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")
	return p, nil
}

// Ingest processes one document and returns the number of chunks applied.
//
// Chunks are extracted concurrently but applied in order. A failed chunk is
// reported and skipped. If every chunk fails, Ingest returns 0 and
// ErrAllChunksFailed. If ctx is cancelled, Ingest stops submitting work and
// returns the chunks applied so far with ctx.Err().
func (p *Pipeline) Ingest(ctx context.Context, docID, text string) (int, error) {
	chunks := p.chunker.Split(docID, text)
	if len(chunks) == 0 {
		return 0, nil
	}

	start := time.Now()
	logger := p.logger.With("doc_id", docID)
	coord := broadcast.NewCoordinator(docID, len(chunks), p.publisher,
		broadcast.WithNodeCap(p.nodeCap),
		broadcast.WithObserver(p.observer),
		broadcast.WithLogger(p.logger))

	logger.Info("ingesting document", "chunks", len(chunks), "bytes", len(text))

	submitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered for every chunk so workers never block on delivery.
	results := make(chan extraction.Result, len(chunks))
	go p.submit(submitCtx, chunks, results)

	seq := newSequencer()
	processed := 0
	for applied := 0; applied < len(chunks); {
		select {
		case <-ctx.Done():
			return p.cancelled(ctx, coord, logger, processed, start)
		case r := <-results:
			seq.push(r)
		}

		for r, ok := seq.pop(); ok; r, ok = seq.pop() {
			applied++
			if r.Err != nil && ctx.Err() != nil {
				return p.cancelled(ctx, coord, logger, processed, start)
			}
			err := p.apply(ctx, coord, r)
			p.observer.ChunkApplied(err)
			if err != nil {
				if ctx.Err() != nil {
					return p.cancelled(ctx, coord, logger, processed, start)
				}
				logger.Warn("chunk failed", "chunk", r.Chunk.Index, "err", err)
				coord.EmitFailure(ctx, r.Chunk.Index, err)
				continue
			}
			processed++
		}
	}

	var err error
	if processed == 0 {
		err = ErrAllChunksFailed
	}
	coord.Finish(ctx, broadcast.Summary{Elapsed: time.Since(start), Err: err})
	logger.Info("document ingested",
		"processed", processed,
		"failed", len(chunks)-processed,
		"elapsed", time.Since(start))
	return processed, err
}

// submit hands chunks to the orchestrator in order until ctx ends.
func (p *Pipeline) submit(ctx context.Context, chunks []core.Chunk, results chan<- extraction.Result) {
	deliver := func(r extraction.Result) { results <- r }
	for _, chunk := range chunks {
		if ctx.Err() != nil {
			return
		}
		if err := p.orchestrator.Submit(ctx, chunk, deliver); err != nil {
			deliver(extraction.Result{
				Chunk: chunk,
				Err:   fmt.Errorf("%w: chunk %d: %w", extraction.ErrChunkFailed, chunk.Index, err),
			})
		}
	}
}

func (p *Pipeline) cancelled(ctx context.Context, coord *broadcast.Coordinator, logger *slog.Logger, processed int, start time.Time) (int, error) {
	err := ctx.Err()
	coord.Finish(context.WithoutCancel(ctx), broadcast.Summary{Elapsed: time.Since(start), Err: err})
	logger.Info("ingestion cancelled", "processed", processed, "err", err)
	return processed, err
}

// apply writes one extracted chunk into the graph and broadcasts the delta.
func (p *Pipeline) apply(ctx context.Context, coord *broadcast.Coordinator, r extraction.Result) error {
	if r.Err != nil {
		return r.Err
	}
	chunk, ext := r.Chunk, r.Extraction
	if ext.Dropped.Total() > 0 {
		p.observer.CandidatesDropped(ext.Dropped)
	}

	d := newDelta()
	ids := make(map[string]core.ID, len(ext.Entities))
	hints := make(map[core.ID]float64, len(ext.Entities))

	for _, candidate := range ext.Entities {
		span := core.SourceSpan{DocID: chunk.DocID, Start: chunk.Start, End: chunk.End}
		if candidate.Start >= 0 && candidate.End > candidate.Start {
			span.Start, span.End = candidate.Start, candidate.End
		}
		outcome, err := p.engine.Resolve(ctx, candidate, span)
		if err != nil {
			return fmt.Errorf("%w: chunk %d: resolving %q: %w", ErrChunkFailed, chunk.Index, candidate.Name, err)
		}
		p.observer.EntityResolved(outcome)

		id := outcome.Entity.Id
		ids[core.EntityKey(candidate.Name, candidate.Type)] = id
		hints[id] = max(hints[id], candidate.Salience)
		d.entity(outcome.Entity, outcome.Created, outcome.Changed)
	}

	rejected, newRelations := 0, 0
	for _, candidate := range ext.Relations {
		from, okFrom := ids[core.EntityKey(candidate.From, candidate.FromType)]
		to, okTo := ids[core.EntityKey(candidate.To, candidate.ToType)]
		if !okFrom || !okTo {
			p.logger.Debug("skipping relation with unresolved endpoint",
				"doc_id", chunk.DocID, "chunk", chunk.Index,
				"from", candidate.From, "to", candidate.To)
			continue
		}

		decision, err := p.filter.Admit(ctx, from, to, candidate)
		if err != nil {
			return fmt.Errorf("%w: chunk %d: admitting %s: %w", ErrChunkFailed, chunk.Index, candidate.Predicate, err)
		}
		p.observer.RelationDecided(decision)
		switch {
		case !decision.Admitted:
			rejected++
		case decision.Changed:
			d.relations = append(d.relations, decision.Relationship)
			if decision.Created {
				newRelations++
			}
		}
	}

	scores, err := p.scorer.Rescore(ctx, d.touched(), hints)
	if err != nil {
		return fmt.Errorf("%w: chunk %d: scoring salience: %w", ErrChunkFailed, chunk.Index, err)
	}
	rescored, err := p.engine.ApplySalience(ctx, scores)
	if err != nil {
		return fmt.Errorf("%w: chunk %d: applying salience: %w", ErrChunkFailed, chunk.Index, err)
	}
	for _, entity := range rescored {
		d.entity(entity, false, true)
	}

	if p.mirror != nil {
		if err := p.mirror.UpsertEntities(ctx, d.touched()...); err != nil {
			return fmt.Errorf("%w: chunk %d: mirroring entities: %w", ErrChunkFailed, chunk.Index, err)
		}
		if err := p.mirror.UpsertRelations(ctx, d.relations...); err != nil {
			return fmt.Errorf("%w: chunk %d: mirroring relations: %w", ErrChunkFailed, chunk.Index, err)
		}
	}

	coord.EmitChunk(ctx, broadcast.Update{
		ChunkIndex:   chunk.Index,
		Created:      d.created(),
		Modified:     d.modified(),
		Relations:    d.relations,
		NewRelations: newRelations,
		Rejected:     rejected,
	})
	return nil
}

// delta tracks the latest version of each entity touched by a chunk.
type delta struct {
	order     []core.ID
	latest    map[core.ID]*core.Entity
	isNew     map[core.ID]bool
	changed   map[core.ID]bool
	relations []*core.Relationship
}

func newDelta() *delta {
	return &delta{
		latest:  make(map[core.ID]*core.Entity),
		isNew:   make(map[core.ID]bool),
		changed: make(map[core.ID]bool),
	}
}

func (d *delta) entity(e *core.Entity, created, changed bool) {
	if _, ok := d.latest[e.Id]; !ok {
		d.order = append(d.order, e.Id)
	}
	d.latest[e.Id] = e
	d.isNew[e.Id] = d.isNew[e.Id] || created
	d.changed[e.Id] = d.changed[e.Id] || changed
}

func (d *delta) touched() []*core.Entity {
	out := make([]*core.Entity, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.latest[id])
	}
	return out
}

func (d *delta) created() []*core.Entity {
	var out []*core.Entity
	for _, id := range d.order {
		if d.isNew[id] {
			out = append(out, d.latest[id])
		}
	}
	return out
}

func (d *delta) modified() []*core.Entity {
	var out []*core.Entity
	for _, id := range d.order {
		if !d.isNew[id] && d.changed[id] {
			out = append(out, d.latest[id])
		}
	}
	return out
}
