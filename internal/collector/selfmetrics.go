package collector

import "github.com/prometheus/client_golang/prometheus"

// selfMetrics describe the collector itself rather than the Katello server.
type selfMetrics struct {
	collectSeconds prometheus.Summary
	groupFailures  *prometheus.CounterVec
}

func newSelfMetrics() *selfMetrics {
	return &selfMetrics{
		collectSeconds: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "collect_seconds",
			Help:      "Time spent to collect metrics from Katello",
		}),
		groupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "group_failures_total",
			Help:      "Endpoint groups that contributed no samples to a scrape, by failure reason.",
		}, []string{"group", "reason"}),
	}
}

func (m *selfMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.collectSeconds, m.groupFailures}
}
