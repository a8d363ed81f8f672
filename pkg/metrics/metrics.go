package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Auth operation names
const (
	OpRegister        = "register"
	OpLogin           = "login"
	OpValidateSession = "validate_session"
)

// Outcome labels for auth operations
const (
	OutcomeSuccess            = "success"
	OutcomeConflict           = "conflict"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeInvalidToken       = "invalid_token"
	OutcomeUnauthenticated    = "unauthenticated"
	OutcomeRateLimited        = "rate_limited"
	OutcomeError              = "error"
)

// AuthAttempts counts auth operations by outcome.
var AuthAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "accounts_auth_attempts_total",
		Help: "Total number of authentication operations by outcome",
	},
	[]string{"operation", "outcome"},
)

// LifecycleTransitions counts account state changes.
var LifecycleTransitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "accounts_lifecycle_transitions_total",
		Help: "Total number of account lifecycle transitions",
	},
	[]string{"transition"},
)

// HTTPDuration observes request latency per route.
var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "accounts_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// Register registers the collectors with reg. Panics on duplicate registration.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(AuthAttempts, LifecycleTransitions, HTTPDuration)
}

// RecordAuth increments the auth counter
func RecordAuth(operation, outcome string) {
	AuthAttempts.WithLabelValues(operation, outcome).Inc()
}

// RecordTransition increments the lifecycle counter
func RecordTransition(transition string) {
	LifecycleTransitions.WithLabelValues(transition).Inc()
}

// ObserveHTTP records one request
func ObserveHTTP(method, route, status string, d time.Duration) {
	HTTPDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
