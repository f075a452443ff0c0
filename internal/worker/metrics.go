package worker

import "github.com/prometheus/client_golang/prometheus"

// Dispatch outcome labels.
const (
	outcomeOK       = "ok"
	outcomeFailed   = "failed"
	outcomeNotFound = "not_found"
	outcomePanic    = "panic"
)

// Metrics holds the runtime's Prometheus collectors. A nil *Metrics is a
// valid no-op receiver so metrics stay optional in tests.
type Metrics struct {
	dispatched *prometheus.CounterVec
}

// NewMetrics creates the runtime collectors and registers them with reg
// (skipped when reg is nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "famulus",
			Subsystem: "worker",
			Name:      "jobs_dispatched_total",
			Help:      "Jobs dispatched by worker name and outcome.",
		}, []string{"worker", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.dispatched)
	}
	return m
}

func (m *Metrics) observe(worker, outcome string) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(worker, outcome).Inc()
}
