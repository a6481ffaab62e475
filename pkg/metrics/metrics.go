// Package metrics holds the process wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "thingspace_notes"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// EmbeddingCalls results: ok, error, timeout, dimension_mismatch, cache_hit, disabled.
	EmbeddingCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "calls_total",
		Help:      "Embedding calls by provider and result.",
	}, []string{"provider", "result"})

	EmbeddingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "duration_seconds",
		Help:      "Embedding call latency, timeouts included.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2, 3, 5},
	})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "Search latency from candidate fetch to ranked result.",
		Buckets:   prometheus.DefBuckets,
	})

	SearchCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "candidates",
		Help:      "Candidate notes scored per search.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	// SearchDegraded counts searches with a query that ran lexical only.
	SearchDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "degraded_total",
		Help:      "Searches that fell back to lexical ranking.",
	})

	BackfillEmbedded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backfill",
		Name:      "embedded_total",
		Help:      "Notes whose missing embedding was filled in.",
	})
)
