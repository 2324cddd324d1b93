// Package reembed rebuilds entity embeddings with a new or updated embedding model.
//
// Entities are visited in ID order and re-embedded in batches. Each batch
// replaces the stored entity vector and its vector index entry, and records a
// named checkpoint so an interrupted run resumes after the last finished
// batch. Reembedding is an offline maintenance job and must not run while
// documents are being ingested.
package reembed
