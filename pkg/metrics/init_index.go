package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initIndexMetrics() {
	r.IndexUpdatesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "index_updates_total",
			Help:      "Index updates by resulting transition",
		},
		[]string{"transition"},
	)

	r.IndexStaleUpdatesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "index_stale_updates_total",
			Help:      "Updates whose old value disagreed with current index membership",
		},
	)

	r.IndexQueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "index_queries_total",
			Help:      "Index queries by outcome",
		},
		[]string{"outcome"},
	)

	r.IndexBuildDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: r.namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Full index build duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	r.IndexKeys = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: r.namespace,
			Name:      "index_keys",
			Help:      "Number of course keys in the grade index",
		},
	)

	r.IndexEntries = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: r.namespace,
			Name:      "index_entries",
			Help:      "Number of (course, record) entries in the grade index",
		},
	)
}
