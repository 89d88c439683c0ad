// Package metrics provides Prometheus metrics for the certificate request
// lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Operations         *prometheus.CounterVec
	CertificatesIssued prometheus.Counter
	PartialApprovals   prometheus.Counter
	ScanDuration       prometheus.Histogram
	ScannedRequests    prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certflow_issuance_operations_total",
			Help: "Request lifecycle operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		CertificatesIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "certflow_issuance_certificates_issued_total",
			Help: "Certificates minted through approvals",
		}),
		PartialApprovals: f.NewCounter(prometheus.CounterOpts{
			Name: "certflow_issuance_partial_approvals_total",
			Help: "Approvals whose uploads were confirmed but whose ledger write failed",
		}),
		ScanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "certflow_issuance_pending_scan_duration_seconds",
			Help:    "Time spent scanning the request id range",
			Buckets: prometheus.DefBuckets,
		}),
		ScannedRequests: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "certflow_issuance_pending_scan_size",
			Help:    "Request ids read per pending scan",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

func (m *Metrics) ObserveOperation(operation, outcome string) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) IncIssued() {
	m.CertificatesIssued.Inc()
}

func (m *Metrics) IncPartialApproval() {
	m.PartialApprovals.Inc()
}

func (m *Metrics) ObserveScan(seconds float64, scanned int) {
	m.ScanDuration.Observe(seconds)
	m.ScannedRequests.Observe(float64(scanned))
}
