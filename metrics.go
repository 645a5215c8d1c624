package permkit

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts authorization decisions made by the middleware.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics creates decision metrics and registers them with reg.
// A nil reg leaves the collectors unregistered.
//
// Example:
//
//	metrics, err := permkit.NewMetrics(prometheus.DefaultRegisterer)
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "permkit",
			Name:      "decisions_total",
			Help:      "Authorization decisions by result and reason.",
		}, []string{"result", "reason"}),
	}
	if reg != nil {
		if err := reg.Register(m.decisions); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records a decision.
func (m *Metrics) Observe(d Decision) {
	if m == nil {
		return
	}
	result := "deny"
	if d.Allowed {
		result = "allow"
	}
	m.decisions.WithLabelValues(result, string(d.Reason)).Inc()
}

// Decisions returns the underlying counter vector.
func (m *Metrics) Decisions() *prometheus.CounterVec {
	return m.decisions
}
