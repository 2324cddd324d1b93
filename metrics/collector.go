package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CSorel-Catalyte/graphdemo/admission"
	"github.com/CSorel-Catalyte/graphdemo/broadcast"
	"github.com/CSorel-Catalyte/graphdemo/canonical"
	"github.com/CSorel-Catalyte/graphdemo/core"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "graphdemo"

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// Pipeline metrics
	Chunks             *prometheus.CounterVec
	ExtractionAttempts *prometheus.CounterVec
	Entities           *prometheus.CounterVec
	Relations          *prometheus.CounterVec
	Dropped            *prometheus.CounterVec
	Messages           *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	}

	c := &Collector{
		registry:           prometheus.NewRegistry(),
		Chunks:             counter("chunks_total", "Chunks applied, by outcome", "outcome"),
		ExtractionAttempts: counter("extraction_attempts_total", "Model calls made during extraction, by result", "result"),
		Entities:           counter("entities_total", "Candidate entities resolved, by outcome", "outcome"),
		Relations:          counter("relations_total", "Candidate relations decided, by decision", "decision"),
		Dropped:            counter("dropped_candidates_total", "Candidates removed during validation, by reason", "reason"),
		Messages:           counter("broadcast_messages_total", "Broadcast messages published, by type", "type"),
		HTTPRequests:       counter("http_requests_total", "Total number of HTTP requests", "method", "route", "status"),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	c.registry.MustRegister(
		c.Chunks,
		c.ExtractionAttempts,
		c.Entities,
		c.Relations,
		c.Dropped,
		c.Messages,
		c.HTTPRequests,
		c.HTTPDuration,
	)
	return c
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ExtractionAttempt counts one model call.
func (c *Collector) ExtractionAttempt(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	c.ExtractionAttempts.WithLabelValues(result).Inc()
}

// BroadcastMessage counts one published message.
func (c *Collector) BroadcastMessage(t broadcast.MessageType) {
	c.Messages.WithLabelValues(string(t)).Inc()
}

// ChunkApplied counts a processed or failed chunk.
func (c *Collector) ChunkApplied(err error) {
	outcome := "processed"
	if err != nil {
		outcome = "failed"
	}
	c.Chunks.WithLabelValues(outcome).Inc()
}

// EntityResolved counts a canonicalization outcome.
func (c *Collector) EntityResolved(outcome *canonical.Outcome) {
	if outcome == nil {
		return
	}
	label := "merged"
	if outcome.Created {
		label = "created"
	}
	c.Entities.WithLabelValues(label).Inc()
	if outcome.Provisional {
		c.Entities.WithLabelValues("provisional").Inc()
	}
}

// RelationDecided counts an admission decision. Rejections are labelled by reason.
func (c *Collector) RelationDecided(decision admission.Decision) {
	switch {
	case !decision.Admitted:
		c.Relations.WithLabelValues(string(decision.Reason)).Inc()
	case decision.Created:
		c.Relations.WithLabelValues("admitted").Inc()
	default:
		c.Relations.WithLabelValues("merged").Inc()
	}
}

// CandidatesDropped counts validation drops.
func (c *Collector) CandidatesDropped(counts core.DropCounts) {
	add := func(reason string, n int) {
		if n > 0 {
			c.Dropped.WithLabelValues(reason).Add(float64(n))
		}
	}
	add("invalid_entity", counts.InvalidEntities)
	add("unknown_type", counts.UnknownTypes)
	add("unknown_predicate", counts.UnknownPredicates)
	add("invalid_relation", counts.InvalidRelations)
	add("dangling_relation", counts.DanglingRelations)
	add("unlocated_quote", counts.UnlocatedQuotes)
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
