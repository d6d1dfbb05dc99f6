package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	RemoteCalls       *prometheus.CounterVec
	RemoteLatency     *prometheus.HistogramVec
	StepTransitions   *prometheus.CounterVec
	ActiveWizards     prometheus.Gauge
	CaptureRejections *prometheus.CounterVec
	AddressFailures   *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RemoteCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "simreg_ekyc_calls_total",
			Help: "Calls made to the eKYC service by operation and outcome",
		}, []string{"op", "outcome"}),
		RemoteLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "simreg_ekyc_call_duration_seconds",
			Help:    "Latency of calls made to the eKYC service",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		StepTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "simreg_step_transitions_total",
			Help: "Wizard step transitions",
		}, []string{"from", "to"}),
		ActiveWizards: f.NewGauge(prometheus.GaugeOpts{
			Name: "simreg_active_wizards",
			Help: "Wizards currently held in memory",
		}),
		CaptureRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "simreg_capture_rejections_total",
			Help: "Captured images rejected before upload",
		}, []string{"kind"}),
		AddressFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "simreg_address_failures_total",
			Help: "Failed address lookups by division and failure class",
		}, []string{"division", "class"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "simreg_http_requests_total",
			Help: "HTTP requests served by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "simreg_http_request_duration_seconds",
			Help:    "Latency of HTTP requests served",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveCall records the outcome and latency of one remote call.
func (m *Metrics) ObserveCall(op, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.RemoteCalls.WithLabelValues(op, outcome).Inc()
	m.RemoteLatency.WithLabelValues(op).Observe(seconds)
}

// StepChanged records a wizard step transition.
func (m *Metrics) StepChanged(from, to string) {
	if m == nil {
		return
	}
	m.StepTransitions.WithLabelValues(from, to).Inc()
}

// CaptureRejected records a rejected capture.
func (m *Metrics) CaptureRejected(kind string) {
	if m == nil {
		return
	}
	m.CaptureRejections.WithLabelValues(kind).Inc()
}

// AddressFailed records a failed address lookup.
func (m *Metrics) AddressFailed(division, class string) {
	if m == nil {
		return
	}
	m.AddressFailures.WithLabelValues(division, class).Inc()
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}
