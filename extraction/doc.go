// Package extraction turns chunks into validated candidate entities and relations.
//
// An Orchestrator calls the model once per attempt on a bounded worker pool,
// retries transient failures with backoff behind a circuit breaker, and
// normalizes the decoded response against the chunk it came from. Failures are
// reported per chunk and never abort the document.
package extraction
