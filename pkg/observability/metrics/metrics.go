// Package metrics exposes Prometheus collectors for the analysis pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysisRequests counts analysis requests by content kind and security level.
	AnalysisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secure_proxy_analysis_requests_total",
			Help: "Total number of analysis requests",
		},
		[]string{"kind", "level"},
	)

	// AnalysisVerdicts counts verdicts by outcome.
	AnalysisVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secure_proxy_analysis_verdicts_total",
			Help: "Total number of analysis verdicts by outcome",
		},
		[]string{"verdict"},
	)

	// AnalysisDuration observes end-to-end analysis latency.
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "secure_proxy_analysis_duration_seconds",
			Help:    "Analysis duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"kind"},
	)

	// DetectedIssues counts detected issues by category.
	DetectedIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secure_proxy_detected_issues_total",
			Help: "Total number of detected issues by category",
		},
		[]string{"category"},
	)

	// CacheRequests counts cache lookups by backend and outcome (hit, miss, error).
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secure_proxy_cache_requests_total",
			Help: "Total number of cache lookups by outcome",
		},
		[]string{"backend", "outcome"},
	)

	// ScorerDegraded counts analyses that fell back to rule-only scoring
	// because the risk scorer was unavailable.
	ScorerDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "secure_proxy_scorer_degraded_total",
			Help: "Total number of analyses degraded due to scorer unavailability",
		},
	)
)

// RecordAnalysis records the request counter, verdict counter and duration
// histogram for one completed analysis.
func RecordAnalysis(kind, level string, safe bool, seconds float64) {
	AnalysisRequests.WithLabelValues(kind, level).Inc()
	verdict := "unsafe"
	if safe {
		verdict = "safe"
	}
	AnalysisVerdicts.WithLabelValues(verdict).Inc()
	AnalysisDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordIssue increments the per-category issue counter.
func RecordIssue(category string) {
	DetectedIssues.WithLabelValues(category).Inc()
}

// RecordCacheLookup increments the cache lookup counter.
func RecordCacheLookup(backend, outcome string) {
	CacheRequests.WithLabelValues(backend, outcome).Inc()
}
