package ingestion

import "errors"

var (
	// ErrChunkerRequired is returned when a chunker is not provided.
	ErrChunkerRequired = errors.New("chunker required")

	// ErrOrchestratorRequired is returned when an extraction orchestrator is not provided.
	ErrOrchestratorRequired = errors.New("extraction orchestrator required")

	// ErrEngineRequired is returned when a canonicalization engine is not provided.
	ErrEngineRequired = errors.New("canonicalization engine required")

	// ErrFilterRequired is returned when an admission filter is not provided.
	ErrFilterRequired = errors.New("admission filter required")

	// ErrScorerRequired is returned when a salience scorer is not provided.
	ErrScorerRequired = errors.New("salience scorer required")

	// ErrChunkFailed wraps a failure while applying a chunk to the graph.
	ErrChunkFailed = errors.New("chunk failed")

	// ErrAllChunksFailed is returned when a document had chunks and none of them succeeded.
	ErrAllChunksFailed = errors.New("all chunks failed")
)
