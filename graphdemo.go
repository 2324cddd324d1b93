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


// Package graphdemo wires the knowledge-graph pipeline together.
//
// A Mapper owns the stores, the model provider and every pipeline stage, and
// exposes the operations served over HTTP and the command line.
package graphdemo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/CSorel-Catalyte/graphdemo/admission"
	"github.com/CSorel-Catalyte/graphdemo/ai"
	"github.com/CSorel-Catalyte/graphdemo/ai/openai"
	"github.com/CSorel-Catalyte/graphdemo/broadcast"
	"github.com/CSorel-Catalyte/graphdemo/canonical"
	"github.com/CSorel-Catalyte/graphdemo/chunker"
	"github.com/CSorel-Catalyte/graphdemo/config"
	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/extraction"
	"github.com/CSorel-Catalyte/graphdemo/ingestion"
	"github.com/CSorel-Catalyte/graphdemo/metrics"
	"github.com/CSorel-Catalyte/graphdemo/reembed"
	"github.com/CSorel-Catalyte/graphdemo/salience"
	"github.com/CSorel-Catalyte/graphdemo/search"
	"github.com/CSorel-Catalyte/graphdemo/storage"
	"github.com/CSorel-Catalyte/graphdemo/storage/badger"
	"github.com/CSorel-Catalyte/graphdemo/storage/neo4j"
	"github.com/CSorel-Catalyte/graphdemo/transport/websocket"
)

// TiktokenEncoding is the BPE encoding used when the tiktoken tokenizer is configured.
const TiktokenEncoding = "cl100k_base"

// ErrConfigRequired is returned when no configuration is provided.
var ErrConfigRequired = errors.New("config required")

// Mapper is the assembled knowledge-graph service.
type Mapper struct {
	cfg          *config.Config
	stores       *badger.Stores
	provider     ai.AIProvider
	orchestrator *extraction.Orchestrator
	pipeline     *ingestion.Pipeline
	searcher     *search.Searcher
	mirror       storage.GraphStore
	hub          *websocket.Hub
	collector    *metrics.Collector
	logger       *slog.Logger
}

// Option configures a Mapper.
type Option func(*options)

type options struct {
	provider   ai.AIProvider
	publishers []broadcast.Publisher
	mirror     storage.GraphStore
	logger     *slog.Logger
}

// WithProvider uses provider instead of an OpenAI-compatible one built from the config.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithPublisher adds a broadcast subscriber next to the websocket hub.
func WithPublisher(p broadcast.Publisher) Option {
	return func(o *options) {
		o.publishers = append(o.publishers, p)
	}
}

// WithMirror adds an external graph store next to the local triple store.
// It replaces the Neo4j mirror named in the config.
func WithMirror(mirror storage.GraphStore) Option {
	return func(o *options) {
		o.mirror = mirror
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New assembles a Mapper from cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (m *Mapper, err error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	m = &Mapper{cfg: cfg, logger: o.logger}
	defer func() {
		if err != nil {
			m.Close()
			m = nil
		}
	}()

	if m.stores, err = badger.OpenStores(cfg.Database.Path, cfg.Database.InMemory); err != nil {
		return m, fmt.Errorf("failed to open stores: %w", err)
	}

	m.provider = o.provider
	if m.provider == nil {
		if m.provider, err = openai.NewProvider(ai.NewConfig(cfg.AIOptions()...)); err != nil {
			return m, fmt.Errorf("failed to create AI provider: %w", err)
		}
	}

	m.collector = metrics.NewCollector(metrics.DefaultNamespace)
	m.hub = websocket.NewHub(websocket.WithLogger(o.logger))

	counter := chunker.Counter(chunker.WordCounter{})
	if cfg.Pipeline.Tokenizer == "tiktoken" {
		if counter, err = chunker.NewTiktokenCounter(TiktokenEncoding); err != nil {
			return m, fmt.Errorf("failed to load tokenizer: %w", err)
		}
	}
	chunks, err := chunker.New(cfg.Pipeline.MaxChunkTokens, chunker.WithCounter(counter))
	if err != nil {
		return m, err
	}

	m.orchestrator, err = extraction.NewOrchestrator(m.provider.Extractor(),
		extraction.WithConcurrency(cfg.Pipeline.Concurrency),
		extraction.WithRequestTimeout(cfg.Pipeline.RequestTimeout.Duration),
		extraction.WithRetryPolicy(cfg.RetryPolicy()),
		extraction.WithBreaker(cfg.CircuitBreaker()),
		extraction.WithObserver(m.collector),
		extraction.WithLogger(o.logger),
	)
	if err != nil {
		return m, err
	}

	engine, err := canonical.NewEngine(m.stores.Entities, m.stores.Vectors, m.provider.Embedder(),
		canonical.WithConfig(cfg.Canonical()), canonical.WithLogger(o.logger))
	if err != nil {
		return m, err
	}
	filter, err := admission.NewFilter(m.stores.Relations,
		admission.WithConfig(cfg.Admission()), admission.WithLogger(o.logger))
	if err != nil {
		return m, err
	}
	scorer, err := salience.NewScorer(m.stores.Relations)
	if err != nil {
		return m, err
	}

	mirror := o.mirror
	if mirror == nil && cfg.Graph.MirrorEnabled() {
		g := cfg.Graph
		if mirror, err = neo4j.Open(ctx, g.Neo4jURI, g.Neo4jUser, g.Neo4jPassword, g.Neo4jDatabase, neo4j.WithLogger(o.logger)); err != nil {
			return m, fmt.Errorf("failed to connect graph mirror: %w", err)
		}
	}
	graphs := storage.GraphStores{m.stores.Triples}
	if mirror != nil {
		graphs = append(graphs, mirror)
		m.mirror = mirror
	}

	publishers := append(broadcast.Fanout{m.hub}, o.publishers...)
	m.pipeline, err = ingestion.NewPipeline(chunks, m.orchestrator, engine, filter, scorer,
		ingestion.WithPublisher(publishers),
		ingestion.WithMirror(graphs),
		ingestion.WithObserver(m.collector),
		ingestion.WithNodeCap(cfg.Pipeline.NodeCap),
		ingestion.WithLogger(o.logger),
	)
	if err != nil {
		return m, err
	}

	m.searcher, err = search.NewSearcher(m.stores.Entities, m.stores.Vectors, m.provider.Embedder(),
		search.WithLogger(o.logger))
	if err != nil {
		return m, err
	}

	m.logger = o.logger.With("component", "mapper")
	return m, nil
}

// Close releases the worker pool, the hub, the mirror, the provider and the stores.
func (m *Mapper) Close() error {
	var errs []error
	if m.orchestrator != nil {
		m.orchestrator.Release()
	}
	if m.hub != nil {
		errs = append(errs, m.hub.Close())
	}
	if m.mirror != nil {
		errs = append(errs, m.mirror.Close())
	}
	if m.provider != nil {
		errs = append(errs, m.provider.Close())
	}
	if m.stores != nil {
		errs = append(errs, m.stores.Close())
	}
	if err := errors.Join(errs...); err != nil {
		m.logger.Error("error closing mapper", "err", err)
		return err
	}
	return nil
}

// Hub returns the websocket hub every broadcast is published to.
func (m *Mapper) Hub() *websocket.Hub {
	return m.hub
}

// Metrics returns the Prometheus collector.
func (m *Mapper) Metrics() *metrics.Collector {
	return m.collector
}

// Ingest adds a document to the graph and returns the number of chunks applied.
func (m *Mapper) Ingest(ctx context.Context, docID, text string) (int, error) {
	return m.pipeline.Ingest(ctx, docID, text)
}

// Search finds up to k entities matching query.
func (m *Mapper) Search(ctx context.Context, query string, k int) ([]*core.SearchResult, error) {
	return m.searcher.FindSimilar(ctx, query, k)
}

// Neighbors returns the subgraph within hops of id, center first.
// It returns storage.ErrNotFound for an unknown id and storage.ErrInvalidQuery
// for out-of-range bounds.
func (m *Mapper) Neighbors(ctx context.Context, id core.ID, hops, limit int) (*core.Graph, error) {
	if err := storage.ValidateNeighborBounds(hops, limit); err != nil {
		return nil, err
	}
	if _, err := m.stores.Entities.GetEntity(ctx, id); err != nil {
		return nil, err
	}
	hood, err := m.stores.Triples.Neighbors(ctx, id, hops, limit)
	if err != nil {
		return nil, err
	}

	entities, err := m.stores.Entities.GetEntities(ctx, append([]core.ID{id}, hood.Nodes...)...)
	if err != nil {
		return nil, err
	}
	graph := &core.Graph{Entities: entities}
	for _, key := range hood.Edges {
		rel, err := m.stores.Relations.GetRelation(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		graph.Relationships = append(graph.Relationships, rel)
	}
	return graph, nil
}

// Export returns every entity and relationship.
func (m *Mapper) Export(ctx context.Context) (*core.Graph, error) {
	entities, err := m.stores.Entities.GetAllEntities(ctx)
	if err != nil {
		return nil, err
	}
	relations, err := m.stores.Relations.GetAllRelations(ctx)
	if err != nil {
		return nil, err
	}
	return &core.Graph{Entities: entities, Relationships: relations}, nil
}

// Stats summarizes the graph.
func (m *Mapper) Stats(ctx context.Context) (*core.GraphStats, error) {
	graph, err := m.Export(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(graph), nil
}

// Summarize computes statistics over a materialized graph.
func Summarize(g *core.Graph) *core.GraphStats {
	stats := &core.GraphStats{
		Entities:             len(g.Entities),
		Relationships:        len(g.Relationships),
		EntitiesByType:       make(map[core.EntityType]int),
		RelationsByPredicate: make(map[core.Predicate]int),
	}
	docs := make(map[string]bool)
	var salienceSum float64
	for _, e := range g.Entities {
		stats.EntitiesByType[e.Type]++
		ids := e.DocumentIDs()
		if len(ids) > 1 {
			stats.CrossDocumentEntities++
		}
		for _, id := range ids {
			docs[id] = true
		}
		salienceSum += e.Salience
	}
	for _, r := range g.Relationships {
		stats.RelationsByPredicate[r.Predicate]++
	}
	stats.Documents = len(docs)
	if len(g.Entities) > 0 {
		stats.AverageSalience = salienceSum / float64(len(g.Entities))
	}
	return stats
}

// Health reports whether the stores are usable.
func (m *Mapper) Health(ctx context.Context) error {
	if m.stores.Backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	_, err := m.stores.Entities.CountEntities(ctx)
	return err
}

// Reembed re-embeds every entity with the configured embedder, writing
// progress to w. It must not run while documents are being ingested.
func (m *Mapper) Reembed(ctx context.Context, w io.Writer, batchSize int) (int, error) {
	cfg := reembed.DefaultConfig()
	if batchSize > 0 {
		cfg.BatchSize = batchSize
		cfg.ReportInterval = batchSize
	}
	cfg.Retry = m.cfg.RetryPolicy()

	r, err := reembed.NewReembedder(m.stores.Entities, m.stores.Vectors, m.provider.Embedder(),
		reembed.WithConfig(cfg),
		reembed.WithCheckpoints(m.stores.Checkpoints),
		reembed.WithProgress(w),
		reembed.WithLogger(m.logger),
	)
	if err != nil {
		return 0, err
	}
	return r.Run(ctx)
}
