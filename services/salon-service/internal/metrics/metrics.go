package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	calculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "availability_calculations_total",
			Help:      "Availability calculations by outcome.",
		},
		[]string{"outcome"},
	)

	skippedLocations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "availability_skipped_locations_total",
			Help:      "Locations left out of a calculation because no opening hours were found.",
		},
	)

	calculationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "salon",
			Name:      "availability_calculation_seconds",
			Help:      "Time spent computing and grouping schedules.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	availabilityWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "availability_writes_total",
			Help:      "Stored availability records by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	distributorRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "distributor_runs_total",
			Help:      "Barber assignment runs by outcome.",
		},
		[]string{"outcome"},
	)

	assignedSlots = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "distributor_assigned_slots_total",
			Help:      "Open slots appended to barber ledgers.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(calculations, skippedLocations, calculationSeconds, availabilityWrites, distributorRuns, assignedSlots)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveCalculation(outcome string, seconds float64) {
	calculations.WithLabelValues(outcome).Inc()
	calculationSeconds.Observe(seconds)
}

func AddSkippedLocations(n int) {
	skippedLocations.Add(float64(n))
}

func IncAvailabilityWrite(op, outcome string) {
	availabilityWrites.WithLabelValues(op, outcome).Inc()
}

func IncDistributorRun(outcome string) {
	distributorRuns.WithLabelValues(outcome).Inc()
}

func AddAssignedSlots(n int) {
	assignedSlots.Add(float64(n))
}
