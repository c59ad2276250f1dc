package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStoreMetrics() {
	r.StoreRecordsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: r.namespace,
			Name:      "store_records",
			Help:      "Number of records held by the store",
		},
	)

	r.StoreGradeUpdates = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "store_grade_updates_total",
			Help:      "Grade mutations by status",
		},
		[]string{"status"},
	)

	r.StoreRejectedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "store_rejected_records_total",
			Help:      "Records rejected by validation on load",
		},
	)
}
