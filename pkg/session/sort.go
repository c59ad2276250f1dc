package session

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dd0wney/cluso-roster/pkg/logging"
	"github.com/dd0wney/cluso-roster/pkg/merge"
	"github.com/dd0wney/cluso-roster/pkg/parallel"
	"github.com/dd0wney/cluso-roster/pkg/partition"
	"github.com/dd0wney/cluso-roster/pkg/roster"
	"github.com/google/uuid"
)

// SortResult describes one sort pass
type SortResult struct {
	PassID           string
	RequestedWorkers int
	Workers          int
	Records          int
	Skipped          bool // fewer than two records, nothing to sort
	Ranges           []partition.Range
	WorkerDurations  []time.Duration
	MergeDuration    time.Duration
	TotalDuration    time.Duration
	LoadBalance      float64
}

// clampWorkers normalizes a requested worker count into [1, MaxWorkers]
func (s *Session) clampWorkers(requested int) int {
	limit := s.cfg.Sort.MaxWorkers
	if limit < 1 {
		limit = 1
	}
	switch {
	case requested < 1:
		return 1
	case requested > limit:
		s.logger.Warn("worker count clamped",
			logging.Int("requested", requested),
			logging.Workers(limit),
		)
		return limit
	}
	return requested
}

// SortAndMerge orders every record by branch, start year and roll using
// workers concurrent sorters, merges their partitions and swaps the result
// in as the store's ordering. A worker count of zero or less uses
// cfg.Sort.Workers.
//
// If any partition fails the ordering is left exactly as it was and the
// pool error is returned wrapped with the pass ID.
func (s *Session) SortAndMerge(workers int) (*SortResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return nil, ErrNotLoaded
	}
	if workers <= 0 {
		workers = s.cfg.Sort.Workers
	}

	result := &SortResult{
		PassID:           uuid.NewString(),
		RequestedWorkers: workers,
		Workers:          s.clampWorkers(workers),
		Records:          s.store.Len(),
	}
	log := s.logger.With(logging.PassID(result.PassID), logging.Workers(result.Workers))

	if result.Records <= 1 {
		result.Skipped = true
		log.Debug("sort pass skipped", logging.Count(result.Records))
		return result, nil
	}

	start := time.Now()
	result.Ranges = partition.Split(result.Records, result.Workers)
	result.LoadBalance = partition.ComputeMetrics(result.Ranges).LoadBalance

	err := s.store.Reorder(func(order []roster.RecordID, cmp roster.IDComparator) ([]roster.RecordID, error) {
		// Work on a copy so a failed pass leaves the live ordering untouched
		work := slices.Clone(order)
		if s.wrapCompare != nil {
			cmp = s.wrapCompare(cmp)
		}

		timings, err := parallel.SortPartitions[roster.RecordID](work, result.Ranges, cmp, parallel.WithLogger(log))
		result.WorkerDurations = timings.Durations()
		if err != nil {
			return nil, err
		}

		mergeStart := time.Now()
		merged := merge.Merge[roster.RecordID](work, result.Ranges, cmp)
		result.MergeDuration = time.Since(mergeStart)
		return merged, nil
	})
	result.TotalDuration = time.Since(start)
	s.passRan, s.passAt, s.passErr = true, start, err

	if err != nil {
		s.recordPass(result, err)
		log.Error("sort pass failed", logging.Error(err), logging.Latency(result.TotalDuration))
		return result, fmt.Errorf("sort pass %s: %w", result.PassID, err)
	}

	s.recordPass(result, nil)
	for i, d := range result.WorkerDurations {
		log.Debug("partition sorted",
			logging.Worker(i),
			logging.String("range", result.Ranges[i].String()),
			logging.Duration("elapsed", d),
		)
	}
	log.Info("sort pass complete",
		logging.Count(result.Records),
		logging.Duration("merge", result.MergeDuration),
		logging.Latency(result.TotalDuration),
	)
	return result, nil
}

func (s *Session) recordPass(result *SortResult, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
		var poolErr *parallel.PoolError
		if errors.As(err, &poolErr) {
			s.metrics.RecordPoolFailures(len(poolErr.Failures))
		}
	}
	s.metrics.RecordSortPass(status, result.Workers, result.LoadBalance, result.TotalDuration)
	s.metrics.RecordSortTasks(result.WorkerDurations)
	if err == nil {
		s.metrics.RecordMerge(result.MergeDuration)
	}
}
