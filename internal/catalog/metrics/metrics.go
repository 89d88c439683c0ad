// Package metrics provides Prometheus metrics for the certificate catalog.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	MetadataResolutions *prometheus.CounterVec
	Verifications       *prometheus.CounterVec
	ListSize            prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MetadataResolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certflow_catalog_metadata_resolutions_total",
			Help: "Certificate metadata dereferences by outcome",
		}, []string{"outcome"}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certflow_catalog_issuer_verifications_total",
			Help: "Issuer verifications by result",
		}, []string{"result"}),
		ListSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "certflow_catalog_holder_certificates",
			Help:    "Certificates returned per holder listing",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}
}

func (m *Metrics) ObserveMetadata(outcome string) {
	m.MetadataResolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveVerification(authorized bool) {
	result := "issuer_unverified"
	if authorized {
		result = "issuer_verified"
	}
	m.Verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveList(n int) {
	m.ListSize.Observe(float64(n))
}
