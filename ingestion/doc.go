// Package ingestion drives documents through the extraction pipeline.
//
// A Pipeline splits a document into chunks, extracts them concurrently on the
// orchestrator's pool and applies the results strictly in chunk order:
// entities are canonicalized, relations admitted, salience rescored and the
// resulting delta broadcast. A failed chunk never aborts the document.
package ingestion
