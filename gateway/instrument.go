package gateway

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts authentication attempts by outcome: "success",
// "session_error", or the apperr failure code.
type Metrics struct {
	Attempts *prometheus.CounterVec
}

// NewMetrics registers the outcome counter with the default registry.
func NewMetrics() *Metrics {
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssobridge",
		Subsystem: "auth",
		Name:      "attempts_total",
		Help:      "Authentication attempts per outcome",
	}, []string{"outcome"})
	prometheus.MustRegister(attempts)
	return &Metrics{Attempts: attempts}
}

// Observe is nil-safe so tests can run without a registry.
func (m *Metrics) Observe(outcome string) {
	if m == nil || m.Attempts == nil {
		return
	}
	m.Attempts.WithLabelValues(outcome).Inc()
}
