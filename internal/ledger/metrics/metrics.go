// Package metrics provides Prometheus metrics for ledger calls.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CallsTotal   *prometheus.CounterVec   // by operation and outcome code
	CallDuration *prometheus.HistogramVec // by operation
	Writes       *prometheus.CounterVec   // confirmed writes by operation
}

// New registers on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certflow_ledger_calls_total",
			Help: "Ledger gateway calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		CallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certflow_ledger_call_duration_seconds",
			Help:    "Ledger gateway call latency by operation",
			Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 15, 60},
		}, []string{"operation"}),
		Writes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certflow_ledger_writes_total",
			Help: "Confirmed ledger writes by operation",
		}, []string{"operation"}),
	}
}

func (m *Metrics) ObserveCall(operation, outcome string, seconds float64) {
	m.CallsTotal.WithLabelValues(operation, outcome).Inc()
	m.CallDuration.WithLabelValues(operation).Observe(seconds)
}

func (m *Metrics) IncWrite(operation string) {
	m.Writes.WithLabelValues(operation).Inc()
}
