package metrics

import (
	"runtime"
	"time"
)

// RecordSortPass records a completed or failed sort pass
func (r *Registry) RecordSortPass(status string, workers int, loadBalance float64, duration time.Duration) {
	r.SortPassesTotal.WithLabelValues(status).Inc()
	r.SortPassDuration.Observe(duration.Seconds())
	r.SortWorkers.Set(float64(workers))
	r.SortLoadBalance.Set(loadBalance)
}

// RecordSortTasks records the per-partition durations of one pass
func (r *Registry) RecordSortTasks(durations []time.Duration) {
	for _, d := range durations {
		r.SortTaskDuration.Observe(d.Seconds())
	}
}

// RecordMerge records the duration of one k-way merge
func (r *Registry) RecordMerge(duration time.Duration) {
	r.MergeDuration.Observe(duration.Seconds())
}

// RecordPoolFailures adds failed task count from one join
func (r *Registry) RecordPoolFailures(failed int) {
	r.PoolTaskFailuresTotal.Add(float64(failed))
}

// RecordIndexUpdate records one index reclassification
func (r *Registry) RecordIndexUpdate(transition string, stale bool) {
	r.IndexUpdatesTotal.WithLabelValues(transition).Inc()
	if stale {
		r.IndexStaleUpdatesTotal.Inc()
	}
}

// RecordIndexQuery records a query; hit is false when the key has no entries
func (r *Registry) RecordIndexQuery(hit bool) {
	if hit {
		r.IndexQueriesTotal.WithLabelValues("hit").Inc()
	} else {
		r.IndexQueriesTotal.WithLabelValues("miss").Inc()
	}
}

// RecordIndexBuild records a full rebuild and the resulting index size
func (r *Registry) RecordIndexBuild(duration time.Duration, keys, entries int) {
	r.IndexBuildDuration.Observe(duration.Seconds())
	r.UpdateIndexSize(keys, entries)
}

// UpdateIndexSize sets the index size gauges
func (r *Registry) UpdateIndexSize(keys, entries int) {
	r.IndexKeys.Set(float64(keys))
	r.IndexEntries.Set(float64(entries))
}

// UpdateStoreMetrics sets the record count gauge and adds rejected records
func (r *Registry) UpdateStoreMetrics(records, rejected int) {
	r.StoreRecordsTotal.Set(float64(records))
	if rejected > 0 {
		r.StoreRejectedTotal.Add(float64(rejected))
	}
}

// RecordGradeUpdate records a grade mutation by status
func (r *Registry) RecordGradeUpdate(status string) {
	r.StoreGradeUpdates.WithLabelValues(status).Inc()
}

// UpdateSystemMetrics samples uptime, goroutine and memory gauges
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	r.UptimeSeconds.Set(time.Since(r.started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
	r.MemorySysBytes.Set(float64(mem.Sys))
}

// Snapshot gathers the registry and returns counter and gauge values keyed
// by fully qualified metric name. Labelled series are summed.
func (r *Registry) Snapshot() (map[string]float64, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				values[mf.GetName()+"_count"] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return values, nil
}
