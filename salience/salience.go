// Package salience scores how central an entity is to the graph.
package salience

import (
	"context"
	"errors"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

// DefaultHalfSaturation is the mention count at which frequency reaches 0.5.
const DefaultHalfSaturation = 4

// ErrRelationRepositoryRequired is returned when a relation repository is not provided.
var ErrRelationRepositoryRequired = errors.New("relation repository required")

// Scorer computes salience from mention frequency and incident relation confidence.
type Scorer struct {
	relations      storage.RelationRepository
	halfSaturation float64
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithHalfSaturation sets the mention count at which frequency reaches 0.5.
func WithHalfSaturation(n float64) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.halfSaturation = n
		}
	}
}

// NewScorer creates a Scorer.
func NewScorer(relations storage.RelationRepository, opts ...Option) (*Scorer, error) {
	if relations == nil {
		return nil, ErrRelationRepositoryRequired
	}
	s := &Scorer{relations: relations, halfSaturation: DefaultHalfSaturation}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Frequency maps a mention count onto [0,1).
func (s *Scorer) Frequency(mentions int) float64 {
	if mentions <= 0 {
		return 0
	}
	m := float64(mentions)
	return m / (m + s.halfSaturation)
}

// Score returns the salience of entity given an extractor hint.
// The result is in [0,1] and never below the entity's stored salience.
func (s *Scorer) Score(ctx context.Context, entity *core.Entity, hint float64) (float64, error) {
	incident, err := s.relations.IncidentRelations(ctx, entity.Id)
	if err != nil {
		return 0, err
	}
	var connectivity float64
	for _, rel := range incident {
		connectivity += rel.Confidence
	}

	frequency := max(core.ClampUnit(hint), s.Frequency(mentions(entity)))
	score := core.ClampUnit(max(frequency, connectivity))
	return max(score, entity.Salience), nil
}

// Rescore scores every entity, returning the new values by id.
func (s *Scorer) Rescore(ctx context.Context, entities []*core.Entity, hints map[core.ID]float64) (map[core.ID]float64, error) {
	scores := make(map[core.ID]float64, len(entities))
	for _, entity := range entities {
		score, err := s.Score(ctx, entity, hints[entity.Id])
		if err != nil {
			return nil, err
		}
		scores[entity.Id] = score
	}
	return scores, nil
}

// mentions counts distinct source spans.
func mentions(entity *core.Entity) int {
	seen := make(map[core.SourceSpan]bool, len(entity.SourceSpans))
	for _, span := range entity.SourceSpans {
		seen[span] = true
	}
	return len(seen)
}
