package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	searches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "airbnb_manager",
			Name:      "searches_total",
			Help:      "Booking solution searches executed.",
		},
	)

	solutionsFound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airbnb_manager",
			Name:      "solutions_found_total",
			Help:      "Solutions produced by the search, by type.",
		},
		[]string{"type"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airbnb_manager",
			Name:      "bookings_total",
			Help:      "Booking confirmations by outcome.",
		},
		[]string{"outcome"},
	)

	shortages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "airbnb_manager",
			Name:      "supply_shortages_total",
			Help:      "Package deductions that could not be fully satisfied.",
		},
	)

	reconciliations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "airbnb_manager",
			Name:      "reconciliations_total",
			Help:      "Usage reconciliation batches processed.",
		},
	)

	searchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "airbnb_manager",
			Name:      "search_duration_seconds",
			Help:      "Solution search latency.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(searches, solutionsFound, bookings, shortages, reconciliations, searchDuration)
	})
}

// IncSearch counts one executed search.
func IncSearch() {
	searches.Inc()
}

// IncSolution counts one produced solution of the given type.
func IncSolution(solutionType string) {
	solutionsFound.WithLabelValues(solutionType).Inc()
}

// IncBooking counts one booking confirmation outcome (confirmed, conflict,
// error).
func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

// IncShortage counts one partially or fully unfulfilled package deduction.
func IncShortage() {
	shortages.Inc()
}

// IncReconciliation counts one reconciliation batch.
func IncReconciliation() {
	reconciliations.Inc()
}

// ObserveSearchDuration records search latency in seconds.
func ObserveSearchDuration(seconds float64) {
	searchDuration.Observe(seconds)
}
