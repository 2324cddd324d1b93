package search

import (
	"context"
	"log/slog"
	"maps"
	"sort"
	"strings"

	"github.com/CSorel-Catalyte/graphdemo/ai"
	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

const (
	// DefaultMaxHits is the result count used when the caller passes k <= 0.
	DefaultMaxHits = 8

	// DefaultMinScore drops semantic matches below this cosine.
	DefaultMinScore = 0.60
)

// Searcher provides hybrid semantic and lexical search over entities.
type Searcher struct {
	entities storage.EntityRepository
	vectors  storage.VectorIndex
	embedder ai.Embedder
	minScore float32
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinScore sets the semantic similarity cut-off.
// Default is DefaultMinScore.
func WithMinScore(score float32) Option {
	return func(s *Searcher) error {
		s.minScore = score
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	entities storage.EntityRepository,
	vectors storage.VectorIndex,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if entities == nil {
		return nil, ErrEntityRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		entities: entities,
		vectors:  vectors,
		embedder: embedder,
		minScore: DefaultMinScore,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches for entities matching the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches for entities matching the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if maxHits <= 0 {
		maxHits = DefaultMaxHits
	}
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	// 1. Semantic search. An unavailable embedder or index leaves lexical matches only.
	semanticScores := make(map[core.ID]float32)
	semanticIds := make([]core.ID, 0, maxHits)
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Warn("error generating embedding for query, using lexical search only", "query", query, "err", err)
	} else {
		matches, err := s.vectors.SearchSimilar(ctx, embedding, "", maxHits)
		if err != nil {
			s.logger.Warn("error querying for similar entities, using lexical search only", "err", err)
		}
		for _, match := range matches {
			if match.Score < s.minScore {
				continue
			}
			semanticScores[match.EntityId] = match.Score
			semanticIds = append(semanticIds, match.EntityId)
		}
	}
	monitor.AfterSemanticSearch(semanticIds)

	// 2. Lexical lookup of the query as a name, alias or acronym, across types.
	lexicalSet := make(map[core.ID]bool)
	keys := core.LexicalKeys(query)
	for _, entityType := range core.EntityTypes {
		found, err := s.entities.FindByLexicalKeys(ctx, entityType, keys...)
		if err != nil {
			s.logger.Error("error looking up lexical keys", "type", entityType, "err", err)
			return nil, err
		}
		for _, entity := range found {
			lexicalSet[entity.Id] = true
		}
	}
	monitor.AfterLexicalSearch(maps.Keys(lexicalSet))

	// 3. Combine and score results
	allIds := make(map[core.ID]bool, len(semanticScores)+len(lexicalSet))
	for id := range semanticScores {
		allIds[id] = true
	}
	for id := range lexicalSet {
		allIds[id] = true
	}

	if len(allIds) == 0 {
		monitor.Finish(nil)
		return []*core.SearchResult{}, nil
	}

	uniqueIds := make([]core.ID, 0, len(allIds))
	for id := range allIds {
		uniqueIds = append(uniqueIds, id)
	}

	entities, err := s.entities.GetEntities(ctx, uniqueIds...)
	if err != nil {
		s.logger.Error("error retrieving entities", "entityCount", len(uniqueIds), "err", err)
		return nil, err
	}
	monitor.AfterEntityRetrieval(entities)

	results := make([]*core.SearchResult, 0, len(entities))
	for _, entity := range entities {
		if entity == nil {
			continue
		}

		similarity, inSemantic := semanticScores[entity.Id]
		inLexical := lexicalSet[entity.Id]

		var score float32
		switch {
		case inSemantic && inLexical:
			// In both: boost by 1.5x, weighted by similarity score
			score = 1.5 * similarity
			monitor.SemanticAndLexicalHit(entity)
		case inLexical:
			score = 1.2
			monitor.LexicalHit(entity)
		default:
			score = similarity
			monitor.SemanticHit(entity)
		}

		// Apply verbatim match boost
		if containsAllQueryWords(searchableText(entity), query) {
			score += 0.3
		}

		results = append(results, &core.SearchResult{
			Entity: entity,
			Score:  score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entity.Id < results[j].Entity.Id
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}

// searchableText is the text the verbatim boost is matched against.
func searchableText(e *core.Entity) string {
	parts := make([]string, 0, len(e.Aliases)+2)
	parts = append(parts, e.Name)
	parts = append(parts, e.Aliases...)
	parts = append(parts, e.Summary)
	return strings.Join(parts, " ")
}
