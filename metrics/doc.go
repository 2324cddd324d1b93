// Package metrics exports pipeline and HTTP metrics to Prometheus.
//
// A Collector owns its registry, so several collectors can coexist in tests.
// It satisfies the observer interfaces of the extraction, broadcast and
// ingestion packages.
package metrics
