package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Extractor asks a language model for the entities and relations in a text.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// Extract returns the decoded and item-validated response.
	// A response that is not an extraction object at all yields ErrSchemaInvalid.
	// Network, timeout and rate-limit failures should satisfy IsTransient.
	Extract(ctx context.Context, text string) (*Extraction, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Extractor returns the entity and relation extraction service.
	Extractor() Extractor

	// Close releases resources held by the provider and its services.
	Close() error
}
