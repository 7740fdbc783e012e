package core

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds the client's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	gatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buzzy",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total number of API requests issued by the gateway.",
		},
		[]string{"method", "code"},
	)

	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buzzy",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"method"},
	)

	sessionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buzzy",
			Subsystem: "session",
			Name:      "events_total",
			Help:      "Session controller transitions by kind.",
		},
		[]string{"event"},
	)

	pollRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buzzy",
			Subsystem: "poller",
			Name:      "runs_total",
			Help:      "Poll iterations by outcome.",
		},
		[]string{"poller", "outcome"},
	)
)

func init() {
	Registry.MustRegister(gatewayRequests, gatewayDuration, sessionEvents, pollRuns)
}

// observeRequest records one gateway call; code 0 means no response was received.
func observeRequest(method string, code int, started time.Time) {
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	gatewayRequests.WithLabelValues(method, label).Inc()
	gatewayDuration.WithLabelValues(method).Observe(time.Since(started).Seconds())
}
