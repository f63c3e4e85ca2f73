package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LinksUpserted counts LINKS_TO edges created or updated by auto-link
	// passes, labeled by the evidence kind that drove the pass.
	LinksUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_links_upserted_total",
			Help: "Total number of auto links created or updated",
		},
		[]string{"evidence"},
	)

	// LinkFixRemoved counts edges deleted by link-fix steps,
	// labeled by step (self, dedupe, prune).
	LinkFixRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_linkfix_removed_total",
			Help: "Total number of links removed by link-fix steps",
		},
		[]string{"step"},
	)

	// LinkFixUpdated counts edges rewritten by link-fix steps
	// (backfill, recompute).
	LinkFixUpdated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_linkfix_updated_total",
			Help: "Total number of links updated by link-fix steps",
		},
		[]string{"step"},
	)

	// ConfidenceScores observes the overall score of every decision scored.
	ConfidenceScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cortex_confidence_score",
			Help:    "Distribution of computed confidence scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	// HTTPRequestsTotal counts HTTP requests, labeled by method, path, status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures server response time.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cortex_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)
