// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "krishak",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "krishak",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "krishak",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	// AuthAttempts counts registrations and logins by outcome.
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "krishak",
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Registration and login attempts.",
		},
		[]string{"action", "outcome"},
	)

	// OrdersPlaced counts orders by outcome ("placed" or the failure kind).
	OrdersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "krishak",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Order placement attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// CartsSwept counts idle in-memory carts dropped by the sweeper.
	CartsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "krishak",
			Subsystem: "cart",
			Name:      "swept_total",
			Help:      "Idle carts removed by the background sweeper.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		AuthAttempts,
		OrdersPlaced,
		CartsSwept,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted marks a request as in flight and returns the function that
// records it once the route and response status are known.
func RequestStarted() func(method, path string, status int) {
	start := time.Now()
	httpInFlight.Inc()
	return func(method, path string, status int) {
		httpInFlight.Dec()
		httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
