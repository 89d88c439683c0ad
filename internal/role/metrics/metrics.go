// Package metrics provides Prometheus metrics for role resolution.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Resolutions   *prometheus.CounterVec // by kind and source (cache|ledger)
	Registrations *prometheus.CounterVec // by role
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certflow_role_resolutions_total",
			Help: "Role resolutions by resolved kind and source",
		}, []string{"kind", "source"}),
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certflow_role_registrations_total",
			Help: "Confirmed registrations by role",
		}, []string{"role"}),
	}
}

func (m *Metrics) ObserveResolution(kind, source string) {
	m.Resolutions.WithLabelValues(kind, source).Inc()
}

func (m *Metrics) IncRegistration(role string) {
	m.Registrations.WithLabelValues(role).Inc()
}
