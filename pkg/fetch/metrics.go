package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for fetch operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "horizons_requests_total",
		Help: "Total Horizons requests by terminal status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "horizons_request_duration_seconds",
		Help:    "Horizons request duration in seconds, issuance to terminal state",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	requestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "horizons_requests_in_flight",
		Help: "Number of Horizons requests currently holding a connection handle",
	})

	responseBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "horizons_response_bytes",
		Help:    "Size of accumulated Horizons response bodies",
		Buckets: prometheus.ExponentialBuckets(256, 4, 8),
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "horizons_errors_total",
		Help: "Total failed Horizons requests by error class",
	}, []string{"class"})

	extractionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "horizons_extraction_failures_total",
		Help: "Successful responses that yielded no state vector, by reason",
	}, []string{"reason"})

	handleWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "horizons_handle_wait_seconds",
		Help:    "Time spent waiting for the oldest in-flight request to free its handle",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30},
	})
)
