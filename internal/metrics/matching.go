package metrics

import "github.com/prometheus/client_golang/prometheus"

// Matching engine Prometheus metrics.
var (
	MatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "End-to-end engine duration in seconds, cache hits included",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "cache"},
	)

	CandidatesScored = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidates_scored",
			Help:      "Candidate pool size per computed request",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
		[]string{"operation"},
	)

	ResultsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "results_returned",
			Help:      "Results returned per request after thresholds and limits",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		},
		[]string{"operation"},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"operation", "result"},
	)

	InvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Cache invalidations by entity kind and source",
		},
		[]string{"kind", "source"},
	)
)

var matchMetricsRegistered bool

// RegisterMatchMetrics registers matching engine metrics. Must be called once from main.
func RegisterMatchMetrics() {
	if matchMetricsRegistered {
		return
	}
	prometheus.MustRegister(MatchDuration)
	prometheus.MustRegister(CandidatesScored)
	prometheus.MustRegister(ResultsReturned)
	prometheus.MustRegister(ResultCacheTotal)
	prometheus.MustRegister(InvalidationsTotal)
	matchMetricsRegistered = true
}
