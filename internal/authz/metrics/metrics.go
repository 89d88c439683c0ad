// Package metrics provides Prometheus metrics for institute authorization.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions            *prometheus.CounterVec
	AuthorizedInstitutes prometheus.Gauge
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certflow_authz_decisions_total",
			Help: "Authorize and revoke attempts by operation and outcome",
		}, []string{"operation", "outcome"}),
		AuthorizedInstitutes: f.NewGauge(prometheus.GaugeOpts{
			Name: "certflow_authz_authorized_institutes",
			Help: "Authorized institutes seen by the last directory listing",
		}),
	}
}

func (m *Metrics) ObserveDecision(operation, outcome string) {
	m.Decisions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) SetAuthorizedInstitutes(n int) {
	m.AuthorizedInstitutes.Set(float64(n))
}
