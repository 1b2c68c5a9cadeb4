package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scheduler",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scheduler",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome.",
		},
		[]string{"outcome"},
	)

	slotComputation = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "scheduler",
			Name:      "slot_computation_seconds",
			Help:      "Time spent computing bookable slots.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 10, 6),
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookings, slotComputation)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBooking counts one booking attempt with its outcome.
func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

// ObserveSlotComputation records a slot computation duration.
func ObserveSlotComputation(d time.Duration) {
	slotComputation.Observe(d.Seconds())
}
