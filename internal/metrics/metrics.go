package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// OracleRequestsTotal counts oracle comparisons by provider and result.
	OracleRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lostfound",
		Subsystem: "matcher",
		Name:      "oracle_requests_total",
		Help:      "Total number of oracle comparison calls, labeled by provider and result.",
	}, []string{"provider", "result"})

	// OracleDurationSeconds is the round-trip time of a single oracle call.
	OracleDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lostfound",
		Subsystem: "matcher",
		Name:      "oracle_duration_seconds",
		Help:      "Time spent waiting on the oracle for one comparison.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60, 120},
	}, []string{"provider"})

	// ImageNormalizationTotal counts image slots by outcome.
	ImageNormalizationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lostfound",
		Subsystem: "matcher",
		Name:      "image_normalization_total",
		Help:      "Image slots processed while building comparison requests, labeled by result.",
	}, []string{"result"})

	// DroppedMatchesTotal counts oracle entries discarded during validation or ranking.
	DroppedMatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lostfound",
		Subsystem: "matcher",
		Name:      "dropped_matches_total",
		Help:      "Oracle match entries discarded, labeled by reason.",
	}, []string{"reason"})

	// StaleResultsTotal counts selection results discarded because a newer selection superseded them.
	StaleResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lostfound",
		Subsystem: "session",
		Name:      "stale_results_total",
		Help:      "Match results discarded because the session moved on to another selection.",
	})

	// ActiveSessions is the number of live matching sessions.
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lostfound",
		Subsystem: "session",
		Name:      "active",
		Help:      "Number of matching sessions currently held in memory.",
	})
)

// Register registers matcher metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			OracleRequestsTotal,
			OracleDurationSeconds,
			ImageNormalizationTotal,
			DroppedMatchesTotal,
			StaleResultsTotal,
			ActiveSessions,
		)
	})
}
