package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"simreg/internal/metrics"
)

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveCall("validate", "ok", 0.1)
		m.StepChanged("mobile", "otp")
		m.CaptureRejected("document")
		m.AddressFailed("city", "network")
		m.ObserveHTTP("GET", "/healthz", "200", 0.01)
	})
}

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveCall("validate", "ok", 0.2)
	m.ObserveCall("validate", "ok", 0.3)
	m.ObserveCall("validate", "network", 1)
	m.StepChanged("mobile", "otp")
	m.CaptureRejected("selfie")
	m.AddressFailed("province", "server")
	m.AddressFailed("province", "server")
	m.ObserveHTTP("POST", "/api/v1/wizards", "201", 0.05)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RemoteCalls.WithLabelValues("validate", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemoteCalls.WithLabelValues("validate", "network")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepTransitions.WithLabelValues("mobile", "otp")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CaptureRejections.WithLabelValues("selfie")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AddressFailures.WithLabelValues("province", "server")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/v1/wizards", "201")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RemoteLatency))
}

func TestMetrics_ActiveWizardsGauge(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	m.ActiveWizards.Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveWizards))
}
