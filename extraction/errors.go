package extraction

import "errors"

var (
	// ErrChunkFailed wraps every terminal extraction failure of a chunk.
	ErrChunkFailed = errors.New("chunk extraction failed")

	// ErrExtractorRequired is returned when an extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrInvalidConcurrency is returned for a pool size below 1.
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")
)
