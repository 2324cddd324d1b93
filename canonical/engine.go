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


package canonical

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/CSorel-Catalyte/graphdemo/ai"
	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

// Config holds the match thresholds.
type Config struct {
	SimilarityThreshold float32 // Inclusive cosine bound for RuleCosine
	TopK                int     // Vector neighbours considered per candidate
	MaxEditDistance     int
	MaxEditLength       int // Names longer than this never match by edit distance
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.86,
		TopK:                8,
		MaxEditDistance:     2,
		MaxEditLength:       12,
	}
}

// Outcome describes how a candidate was resolved.
type Outcome struct {
	Entity      *core.Entity
	Created     bool
	Merged      bool
	Changed     bool    // The stored record was written
	Provisional bool    // Resolved without vector search
	Rule        Rule    // Rule that merged the candidate
	Score       float32 // Cosine to the merged entity, 0 if unknown
}

// Engine resolves candidate entities against the stored graph.
// Resolution is serialized per entity type.
type Engine struct {
	entities storage.EntityRepository
	vectors  storage.VectorIndex
	embedder ai.Embedder
	config   Config
	locks    map[core.EntityType]*sync.Mutex
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(entities storage.EntityRepository, vectors storage.VectorIndex, embedder ai.Embedder, opts ...Option) (*Engine, error) {
	if entities == nil {
		return nil, ErrEntityRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	e := &Engine{
		entities: entities,
		vectors:  vectors,
		embedder: embedder,
		config:   DefaultConfig(),
		locks:    make(map[core.EntityType]*sync.Mutex, len(core.EntityTypes)),
		logger:   slog.Default(),
	}
	for _, t := range core.EntityTypes {
		e.locks[t] = &sync.Mutex{}
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "canonical")
	return e, nil
}

// Resolve merges candidate into a qualifying existing entity or mints a new one.
// Embedding or vector search failures degrade to lexical matching; repository
// failures are returned.
func (e *Engine) Resolve(ctx context.Context, candidate core.CandidateEntity, span core.SourceSpan) (*Outcome, error) {
	candidate.Name = strings.TrimSpace(candidate.Name)
	if candidate.Name == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidEntity, core.ErrEmptyEntityName)
	}
	lock, ok := e.locks[candidate.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", core.ErrInvalidEntity, core.ErrInvalidEntityType, candidate.Type)
	}

	lock.Lock()
	defer lock.Unlock()

	names := surfaceNames(candidate.Name, candidate.Aliases)

	vector, scores, degraded := e.vectorNeighbours(ctx, candidate)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var neighbours []*core.Entity
	var err error
	if degraded {
		neighbours, err = e.entities.ListByType(ctx, candidate.Type)
	} else {
		neighbours, err = e.lexicalUnion(ctx, candidate.Type, names, scores)
	}
	if err != nil {
		return nil, err
	}

	best, rule, score := e.choose(names, neighbours, scores)
	if best == nil {
		// The minted id may already exist when the vector index lags the repository.
		existing, err := e.entities.GetEntity(ctx, core.EntityIDFor(candidate.Name, candidate.Type))
		switch {
		case err == nil:
			best, rule = existing, RuleAlias
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
	}

	if best == nil {
		return e.mint(ctx, candidate, span, vector, degraded)
	}
	return e.merge(ctx, best, candidate, span, rule, score, degraded)
}

// vectorNeighbours embeds the candidate and searches its type's neighbours.
// degraded is true when either step failed.
func (e *Engine) vectorNeighbours(ctx context.Context, candidate core.CandidateEntity) ([]float32, map[core.ID]float32, bool) {
	vector, err := e.embedder.EmbedText(ctx, core.EmbeddingText(candidate.Name, candidate.Summary))
	if err != nil || len(vector) == 0 {
		e.logger.Warn("embedding unavailable, resolving provisionally",
			"name", candidate.Name, "type", candidate.Type, "err", err)
		return nil, nil, true
	}
	vector = core.NormalizeVector(vector)

	matches, err := e.vectors.SearchSimilar(ctx, vector, candidate.Type, e.config.TopK)
	if err != nil {
		e.logger.Warn("vector search unavailable, resolving provisionally",
			"name", candidate.Name, "type", candidate.Type, "err", err)
		return vector, nil, true
	}

	scores := make(map[core.ID]float32, len(matches))
	for _, m := range matches {
		scores[m.EntityId] = m.Score
	}
	return vector, scores, false
}

// lexicalUnion loads the vector neighbours plus every entity sharing a lexical key.
func (e *Engine) lexicalUnion(ctx context.Context, entityType core.EntityType, names []string, scores map[core.ID]float32) ([]*core.Entity, error) {
	ids := make([]core.ID, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	byVector, err := e.entities.GetEntities(ctx, ids...)
	if err != nil {
		return nil, err
	}
	byName, err := e.entities.FindByLexicalKeys(ctx, entityType, core.LexicalKeys(names...)...)
	if err != nil {
		return nil, err
	}

	seen := make(map[core.ID]bool, len(byVector)+len(byName))
	var out []*core.Entity
	for _, n := range append(byVector, byName...) {
		if n.Type != entityType || seen[n.Id] {
			continue
		}
		seen[n.Id] = true
		out = append(out, n)
	}
	return out, nil
}

// choose returns the qualifying neighbour with the highest cosine, lower id first on ties.
func (e *Engine) choose(names []string, neighbours []*core.Entity, scores map[core.ID]float32) (*core.Entity, Rule, float32) {
	var best *core.Entity
	var bestRule Rule
	var bestScore float32
	for _, n := range neighbours {
		score := scores[n.Id]
		rule := e.qualify(names, n, score, scores != nil)
		if rule == RuleNone {
			continue
		}
		if best == nil || score > bestScore || (score == bestScore && n.Id < best.Id) {
			best, bestRule, bestScore = n, rule, score
		}
	}
	return best, bestRule, bestScore
}

// qualify returns the first rule under which neighbour matches, or RuleNone.
func (e *Engine) qualify(names []string, neighbour *core.Entity, score float32, scored bool) Rule {
	if scored && score >= e.config.SimilarityThreshold {
		return RuleCosine
	}
	other := surfaceNames(neighbour.Name, neighbour.Aliases)
	if aliasOverlap(names, other) {
		return RuleAlias
	}
	if acronymMatch(names, other) {
		return RuleAcronym
	}
	if closeSpelling(names[0], neighbour.Name, e.config.MaxEditLength, e.config.MaxEditDistance) {
		return RuleEditDistance
	}
	return RuleNone
}

func (e *Engine) mint(ctx context.Context, candidate core.CandidateEntity, span core.SourceSpan, vector []float32, degraded bool) (*Outcome, error) {
	entity := &core.Entity{
		Id:      core.EntityIDFor(candidate.Name, candidate.Type),
		Name:    candidate.Name,
		Type:    candidate.Type,
		Aliases: mergeNames(nil, surfaceNames(candidate.Name, candidate.Aliases)...),
		Vector:  vector,
		Summary: core.TruncateSummary(candidate.Summary),
	}
	entity.SourceSpans, _ = mergeSpan(nil, span)

	if err := e.entities.AddEntities(ctx, entity); err != nil {
		return nil, fmt.Errorf("failed to add entity %q: %w", entity.Name, err)
	}
	if len(vector) > 0 {
		if err := e.vectors.AddVector(ctx, entity.Id, entity.Type, vector); err != nil {
			// The entity stays reachable through its lexical keys.
			e.logger.Warn("failed to index entity vector", "id", entity.Id, "err", err)
			degraded = true
		}
	}
	if degraded {
		e.logger.Info("minted provisional entity", "id", entity.Id, "name", entity.Name, "type", entity.Type)
	}

	return &Outcome{Entity: entity, Created: true, Changed: true, Provisional: degraded}, nil
}

func (e *Engine) merge(ctx context.Context, target *core.Entity, candidate core.CandidateEntity, span core.SourceSpan, rule Rule, score float32, degraded bool) (*Outcome, error) {
	before := len(target.Aliases)
	target.Aliases = mergeNames(target.Aliases, surfaceNames(candidate.Name, candidate.Aliases)...)
	changed := len(target.Aliases) != before

	var added bool
	target.SourceSpans, added = mergeSpan(target.SourceSpans, span)
	changed = changed || added

	if target.Summary == "" && candidate.Summary != "" {
		target.Summary = core.TruncateSummary(candidate.Summary)
		changed = true
	}

	if changed {
		if err := e.entities.UpdateEntities(ctx, target); err != nil {
			return nil, fmt.Errorf("failed to update entity %d: %w", target.Id, err)
		}
	}

	e.logger.Debug("merged candidate",
		"candidate", candidate.Name,
		"entity", target.Name,
		"id", target.Id,
		"rule", rule,
		"score", score)

	return &Outcome{
		Entity:      target,
		Merged:      true,
		Changed:     changed,
		Provisional: degraded,
		Rule:        rule,
		Score:       score,
	}, nil
}

// ApplySalience raises stored salience to the given scores and returns the
// entities that changed. Salience never decreases.
func (e *Engine) ApplySalience(ctx context.Context, scores map[core.ID]float64) ([]*core.Entity, error) {
	if len(scores) == 0 {
		return nil, nil
	}
	ids := make([]core.ID, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	current, err := e.entities.GetEntities(ctx, ids...)
	if err != nil {
		return nil, err
	}

	byType := make(map[core.EntityType][]core.ID)
	for _, entity := range current {
		byType[entity.Type] = append(byType[entity.Type], entity.Id)
	}

	var updated []*core.Entity
	for _, t := range core.EntityTypes {
		if len(byType[t]) == 0 {
			continue
		}
		changed, err := e.applyType(ctx, t, byType[t], scores)
		if err != nil {
			return updated, err
		}
		updated = append(updated, changed...)
	}
	return updated, nil
}

func (e *Engine) applyType(ctx context.Context, t core.EntityType, ids []core.ID, scores map[core.ID]float64) ([]*core.Entity, error) {
	lock := e.locks[t]
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock so concurrent merges are not overwritten.
	fresh, err := e.entities.GetEntities(ctx, ids...)
	if err != nil {
		return nil, err
	}
	var changed []*core.Entity
	for _, entity := range fresh {
		score := core.ClampUnit(scores[entity.Id])
		if score > entity.Salience {
			entity.Salience = score
			changed = append(changed, entity)
		}
	}
	if len(changed) == 0 {
		return nil, nil
	}
	if err := e.entities.UpdateEntities(ctx, changed...); err != nil {
		return nil, fmt.Errorf("failed to update salience: %w", err)
	}
	return changed, nil
}
