package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for content store traffic.
type Metrics struct {
	Operations    *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	BytesStored   prometheus.Counter
	CacheRequests *prometheus.CounterVec
	BreakerOpen   prometheus.Gauge
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certflow_content_operations_total",
			Help: "Content store operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certflow_content_operation_duration_seconds",
			Help:    "Content store operation latency",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		BytesStored: f.NewCounter(prometheus.CounterOpts{
			Name: "certflow_content_bytes_stored_total",
			Help: "Bytes uploaded to the content store",
		}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certflow_content_cache_requests_total",
			Help: "Content cache lookups by result",
		}, []string{"result"}),
		BreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "certflow_content_breaker_open",
			Help: "1 while the content gateway circuit is open",
		}),
	}
}

func (m *Metrics) ObserveOperation(operation, outcome string, seconds float64) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.Duration.WithLabelValues(operation).Observe(seconds)
}

func (m *Metrics) AddBytesStored(n int) {
	m.BytesStored.Add(float64(n))
}

func (m *Metrics) RecordCacheHit() {
	m.CacheRequests.WithLabelValues("hit").Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheRequests.WithLabelValues("miss").Inc()
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}
