// Package admission decides which extracted relations enter the graph.
//
// A relation is admitted when its confidence and its best evidence quote clear
// fixed thresholds. Re-observed relations merge their evidence into the stored
// record. Rejections are decisions, not errors.
package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

// ErrRelationRepositoryRequired is returned when a relation repository is not provided.
var ErrRelationRepositoryRequired = errors.New("relation repository required")

// Reason explains a rejection.
type Reason string

const (
	ReasonLowConfidence Reason = "low_confidence"
	ReasonWeakEvidence  Reason = "weak_evidence"
	ReasonSelfReference Reason = "self_reference"
)

// Config holds the admission thresholds.
type Config struct {
	MinConfidence float64 // Inclusive
	MinQuoteRunes int     // At least one quote must be this long
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{MinConfidence: 0.55, MinQuoteRunes: 60}
}

// Decision is the result of Admit.
type Decision struct {
	Admitted     bool
	Reason       Reason             // Set when rejected
	Relationship *core.Relationship // Stored record when admitted
	Created      bool
	Changed      bool // The stored record was written
}

// Filter admits relations into a RelationRepository.
// Admission is serialized across the whole filter.
type Filter struct {
	relations storage.RelationRepository
	config    Config
	mu        sync.Mutex
	logger    *slog.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(f *Filter) {
		f.config = cfg
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filter) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFilter creates a Filter.
func NewFilter(relations storage.RelationRepository, opts ...Option) (*Filter, error) {
	if relations == nil {
		return nil, ErrRelationRepositoryRequired
	}
	f := &Filter{
		relations: relations,
		config:    DefaultConfig(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "admission")
	return f, nil
}

// Check applies the thresholds without touching storage.
func (f *Filter) Check(from, to core.ID, candidate core.CandidateRelation) (Reason, bool) {
	if from == to {
		return ReasonSelfReference, false
	}
	if candidate.Confidence < f.config.MinConfidence {
		return ReasonLowConfidence, false
	}
	for _, ev := range candidate.Evidence {
		if utf8.RuneCountInString(ev.Quote) >= f.config.MinQuoteRunes {
			return "", true
		}
	}
	return ReasonWeakEvidence, false
}

// Admit checks candidate between the resolved endpoints and stores it when it
// passes. An existing relation with the same key gains the new evidence and
// keeps the higher confidence.
func (f *Filter) Admit(ctx context.Context, from, to core.ID, candidate core.CandidateRelation) (Decision, error) {
	if reason, ok := f.Check(from, to, candidate); !ok {
		f.logger.Debug("rejected relation",
			"from", from, "to", to, "predicate", candidate.Predicate, "reason", reason)
		return Decision{Reason: reason}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := core.RelationKey{From: from, To: to, Predicate: candidate.Predicate}
	existing, err := f.relations.GetRelation(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Decision{}, err
	}

	if existing == nil {
		rel := &core.Relationship{
			From:        from,
			To:          to,
			Predicate:   candidate.Predicate,
			Confidence:  core.ClampUnit(candidate.Confidence),
			Evidence:    mergeEvidence(nil, candidate.Evidence),
			Directional: candidate.Directional,
		}
		if err := f.relations.PutRelation(ctx, rel); err != nil {
			return Decision{}, fmt.Errorf("failed to store relation: %w", err)
		}
		return Decision{Admitted: true, Relationship: rel, Created: true, Changed: true}, nil
	}

	changed := false
	if c := core.ClampUnit(candidate.Confidence); c > existing.Confidence {
		existing.Confidence = c
		changed = true
	}
	before := len(existing.Evidence)
	existing.Evidence = mergeEvidence(existing.Evidence, candidate.Evidence)
	changed = changed || len(existing.Evidence) != before

	if changed {
		if err := f.relations.PutRelation(ctx, existing); err != nil {
			return Decision{}, fmt.Errorf("failed to update relation: %w", err)
		}
	}
	return Decision{Admitted: true, Relationship: existing, Changed: changed}, nil
}

// mergeEvidence appends items not already present.
func mergeEvidence(dst, items []core.Evidence) []core.Evidence {
	for _, item := range items {
		dup := false
		for _, d := range dst {
			if d == item {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, item)
		}
	}
	return dst
}
