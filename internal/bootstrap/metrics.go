package bootstrap

import "github.com/prometheus/client_golang/prometheus"

// Metrics records stage outcomes. A nil *Metrics records nothing.
type Metrics struct {
	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// NewMetrics creates the bootstrap metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stageTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "k3smox",
				Subsystem: "bootstrap",
				Name:      "stage_total",
				Help:      "Total number of finished bootstrap stages by kind and status",
			},
			[]string{"kind", "status"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "k3smox",
				Subsystem: "bootstrap",
				Name:      "stage_duration_seconds",
				Help:      "Duration of executed bootstrap stages in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(m.stageTotal, m.stageDuration)
	return m
}

// metricStatus is the status label: propagated failures are counted apart.
func metricStatus(res *StageResult) string {
	if res.Propagated() {
		return "propagated"
	}
	switch res.Status {
	case StatusHealthy:
		return "healthy"
	case StatusFailed:
		return "failed"
	}
	return "pending"
}

func (m *Metrics) record(res *StageResult) {
	if m == nil {
		return
	}
	kind := string(res.Stage.Kind)
	m.stageTotal.WithLabelValues(kind, metricStatus(res)).Inc()
	if !res.Started.IsZero() {
		m.stageDuration.WithLabelValues(kind).Observe(res.Duration().Seconds())
	}
}
