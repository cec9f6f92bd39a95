package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLeadMetricsRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLeadMetrics(reg)

	m.ObserveSubmission(true)
	m.ObserveSubmission(false)
	m.ObserveSinkDelivery("receiver", true)
	m.ObserveReceiver("accepted", 0.01)
	m.ObserveConversion()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.submissionsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.submissionsTotal.WithLabelValues("failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.sinkDeliveries.WithLabelValues("receiver", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.receiverTotal.WithLabelValues("accepted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.conversionsTotal))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *LeadMetrics
	m.ObserveSubmission(true)
	m.ObserveSinkDelivery("receiver", false)
	m.ObserveReceiver("rejected", 0)
	m.ObserveConversion()
}
