// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "edufam"

// Outcome labels for auth requests.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

type Metrics struct {
	AuthRequests         *prometheus.CounterVec
	RefreshRotations     prometheus.Counter
	RefreshPurged        prometheus.Counter
	RateLimitDecisions   *prometheus.CounterVec
	FingerprintAvailable prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "auth_requests_total", Help: "Auth operations by outcome."},
			[]string{"operation", "outcome"},
		),
		RefreshRotations: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "refresh_rotations_total", Help: "Refresh tokens rotated."},
		),
		RefreshPurged: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "refresh_tokens_purged_total", Help: "Stale refresh tokens deleted."},
		),
		RateLimitDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_decisions_total", Help: "Rate limiter decisions by budget."},
			[]string{"limiter", "decision"},
		),
		FingerprintAvailable: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Name: "schema_fingerprint_available", Help: "1 when refresh tokens can be looked up by fingerprint."},
		),
	}

	reg.MustRegister(m.AuthRequests, m.RefreshRotations, m.RefreshPurged, m.RateLimitDecisions, m.FingerprintAvailable)
	return m
}

// The Observe helpers are no-ops on a nil receiver so callers can run without metrics.

func (m *Metrics) ObserveAuth(operation, outcome string) {
	if m == nil {
		return
	}
	m.AuthRequests.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveRotation() {
	if m == nil {
		return
	}
	m.RefreshRotations.Inc()
}

func (m *Metrics) ObservePurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.RefreshPurged.Add(float64(n))
}

func (m *Metrics) ObserveRateLimit(limiter string, allowed bool) {
	if m == nil {
		return
	}
	decision := "allowed"
	if !allowed {
		decision = "rejected"
	}
	m.RateLimitDecisions.WithLabelValues(limiter, decision).Inc()
}

func (m *Metrics) SetFingerprintAvailable(available bool) {
	if m == nil {
		return
	}
	if available {
		m.FingerprintAvailable.Set(1)
		return
	}
	m.FingerprintAvailable.Set(0)
}

// Handler serves the exposition format for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
