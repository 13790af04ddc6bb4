package monitoring

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	latencyHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	loginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asso",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
	paymentCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asso",
			Name:      "contribution_payments_total",
			Help:      "Contribution payment flag changes",
		},
		[]string{"paid"},
	)

	registerOnce sync.Once
)

// Init registers custom collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestCounter, latencyHistogram, loginCounter, paymentCounter)
	})
}

// ObserveRequest records metrics.
func ObserveRequest(path, method, status string, seconds float64) {
	requestCounter.WithLabelValues(path, method, status).Inc()
	latencyHistogram.WithLabelValues(path, method).Observe(seconds)
}

// ObserveLogin counts a login attempt.
func ObserveLogin(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	loginCounter.WithLabelValues(outcome).Inc()
}

// ObservePayment counts a contribution marked paid or unpaid.
func ObservePayment(paid bool) {
	label := "false"
	if paid {
		label = "true"
	}
	paymentCounter.WithLabelValues(label).Inc()
}
