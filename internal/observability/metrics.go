// README: Prometheus metrics for the ride lifecycle and HTTP layer.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "campusride", Name: "rides_created_total",
		Help: "Rides created in requested state",
	})
	RidesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "campusride", Name: "rides_completed_total",
		Help: "Rides that reached completed",
	})
	AcceptConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "campusride", Name: "ride_accept_conflicts_total",
		Help: "Accept attempts that lost the guarded update",
	})
	OTPFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "campusride", Name: "otp_failures_total",
		Help: "OTP verification mismatches",
	})
	DriversOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "campusride", Name: "drivers_online",
		Help: "Drivers currently online",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campusride", Name: "http_requests_total", Help: "HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campusride",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
