package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the capture funnel.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	sinkDeliveries   *prometheus.CounterVec
	receiverTotal    *prometheus.CounterVec
	receiverLatency  prometheus.Histogram
	conversionsTotal prometheus.Counter
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadquiz",
			Subsystem: "submit",
			Name:      "submissions_total",
			Help:      "Total lead submissions by overall result",
		}, []string{"result"}),
		sinkDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadquiz",
			Subsystem: "submit",
			Name:      "sink_deliveries_total",
			Help:      "Total per-sink delivery attempts",
		}, []string{"sink", "status"}),
		receiverTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadquiz",
			Subsystem: "receiver",
			Name:      "requests_total",
			Help:      "Total webhook receiver requests by outcome",
		}, []string{"outcome"}),
		receiverLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadquiz",
			Subsystem: "receiver",
			Name:      "latency_seconds",
			Help:      "Latency of webhook receiver processing",
			Buckets:   prometheus.DefBuckets,
		}),
		conversionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadquiz",
			Subsystem: "quiz",
			Name:      "conversions_total",
			Help:      "Total completed quizzes (one per session)",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.sinkDeliveries, m.receiverTotal, m.receiverLatency, m.conversionsTotal)
	return m
}

func (m *LeadMetrics) ObserveSubmission(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.submissionsTotal.WithLabelValues(result).Inc()
}

func (m *LeadMetrics) ObserveSinkDelivery(sink string, ok bool) {
	if m == nil {
		return
	}
	status := "error"
	if ok {
		status = "ok"
	}
	m.sinkDeliveries.WithLabelValues(sink, status).Inc()
}

func (m *LeadMetrics) ObserveReceiver(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.receiverTotal.WithLabelValues(outcome).Inc()
	m.receiverLatency.Observe(seconds)
}

func (m *LeadMetrics) ObserveConversion() {
	if m == nil {
		return
	}
	m.conversionsTotal.Inc()
}
