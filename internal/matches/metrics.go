package matches

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matches_created_total",
			Help: "Total number of matches created",
		},
	)

	joinAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matches_join_attempts_total",
			Help: "Join/invite/respond attempts by outcome",
		},
		[]string{"operation", "outcome"},
	)

	capacityFlipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matches_capacity_flips_total",
			Help: "Status flips driven by the confirmed-count crossing the cap",
		},
		[]string{"direction"},
	)

	searchResultSizes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matches_search_result_sizes",
			Help:    "Result sizes of proximity searches",
			Buckets: prometheus.LinearBuckets(0, 5, 11),
		},
	)
)

func RecordMatchCreated() {
	matchesCreatedTotal.Inc()
}

func RecordOperation(operation, outcome string) {
	joinAttemptsTotal.WithLabelValues(operation, outcome).Inc()
}

func RecordCapacityFlip(direction string) {
	capacityFlipsTotal.WithLabelValues(direction).Inc()
}

func RecordSearchResults(n int) {
	searchResultSizes.Observe(float64(n))
}
