package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSortMetrics() {
	r.SortPassesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "sort_passes_total",
			Help:      "Total number of parallel sort passes",
		},
		[]string{"status"},
	)

	r.SortPassDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: r.namespace,
			Name:      "sort_pass_duration_seconds",
			Help:      "End-to-end sort pass duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	r.SortTaskDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: r.namespace,
			Name:      "sort_task_duration_seconds",
			Help:      "Time a single worker spent sorting its partition",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	r.SortWorkers = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: r.namespace,
			Name:      "sort_workers",
			Help:      "Worker count used by the most recent sort pass",
		},
	)

	r.SortLoadBalance = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: r.namespace,
			Name:      "sort_load_balance",
			Help:      "Partition load balance of the most recent pass (1 = perfect)",
		},
	)

	r.MergeDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: r.namespace,
			Name:      "merge_duration_seconds",
			Help:      "K-way merge duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	r.PoolTaskFailuresTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "pool_task_failures_total",
			Help:      "Total number of failed sort tasks",
		},
	)
}
