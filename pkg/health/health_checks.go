package health

import (
	"runtime"
	"time"
)

// Common health check functions

// StoreCheck reports whether records have been loaded
func StoreCheck(getState func() (loaded bool, records int)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "store",
			Details: make(map[string]any),
		}

		loaded, records := getState()
		check.Details["loaded"] = loaded
		check.Details["records"] = records

		if !loaded {
			check.Status = StatusDegraded
			check.Message = "No records loaded"
		} else {
			check.Status = StatusHealthy
			check.Message = "Records loaded"
		}

		return check
	}
}

// IndexConsistencyCheck re-derives the grade index from record state and
// reports any disagreement. verify returns the number of (course, record)
// pairs examined and how many disagreed.
func IndexConsistencyCheck(verify func() (checked, mismatches int)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "index_consistency",
			Details: make(map[string]any),
		}

		checked, mismatches := verify()
		check.Details["checked"] = checked
		check.Details["mismatches"] = mismatches

		if mismatches > 0 {
			check.Status = StatusUnhealthy
			check.Message = "Index disagrees with record grades"
		} else {
			check.Status = StatusHealthy
			check.Message = "Index consistent"
		}

		return check
	}
}

// SortPassCheck reports on the most recent sort pass. A failed pass leaves
// the previous ordering in place, so it degrades rather than fails.
func SortPassCheck(lastPass func() (ran bool, at time.Time, err error)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "sort_pass",
			Details: make(map[string]any),
		}

		ran, at, err := lastPass()
		check.Details["ran"] = ran

		switch {
		case !ran:
			check.Status = StatusHealthy
			check.Message = "No sort pass yet"
		case err != nil:
			check.Details["at"] = at
			check.Status = StatusDegraded
			check.Message = err.Error()
		default:
			check.Details["at"] = at
			check.Status = StatusHealthy
			check.Message = "Last sort pass succeeded"
		}

		return check
	}
}

// MemoryCheck creates a health check for memory usage
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()

		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		usagePercent := 0.0
		if sys > 0 {
			usagePercent = float64(alloc) / float64(sys) * 100
		}

		if usagePercent > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}

// RuntimeMemory reads heap allocation and OS-obtained memory from the runtime
func RuntimeMemory() (alloc, sys uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc, m.Sys
}
