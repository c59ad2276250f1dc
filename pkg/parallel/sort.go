package parallel

import (
	"slices"
	"sync"
	"time"

	"github.com/dd0wney/cluso-roster/pkg/partition"
)

// Timings holds the elapsed sort time of each partition. Slots are written
// once by their task under mu and should be read after the join.
type Timings struct {
	mu        sync.Mutex
	durations []time.Duration
	recorded  []bool
}

func newTimings(n int) *Timings {
	return &Timings{
		durations: make([]time.Duration, n),
		recorded:  make([]bool, n),
	}
}

func (t *Timings) record(i int, d time.Duration) {
	t.mu.Lock()
	t.durations[i] = d
	t.recorded[i] = true
	t.mu.Unlock()
}

// Durations returns a copy of the per-partition durations. Partitions that
// failed or were never run report zero.
func (t *Timings) Durations() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.durations)
}

// Recorded reports whether partition i completed and recorded a duration
func (t *Timings) Recorded(i int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return i >= 0 && i < len(t.recorded) && t.recorded[i]
}

// Len returns the number of partition slots
func (t *Timings) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.durations)
}

// Max returns the slowest partition's duration
func (t *Timings) Max() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	var longest time.Duration
	for _, d := range t.durations {
		longest = max(longest, d)
	}
	return longest
}

// SortPartitions sorts each range of data concurrently, one task per range.
// A task only touches its own range: it sorts a private copy and writes it
// back after the sort returns, so a failed task leaves its range as it was.
// Returns after every task has finished. Failures are reported as a
// *PoolError whose TaskErrors carry the partition index and range.
//
// With len(data) <= 1 nothing runs and the returned Timings is empty.
func SortPartitions[T any](data []T, ranges []partition.Range, cmp func(a, b T) int, opts ...PoolOption) (*Timings, error) {
	if len(data) <= 1 {
		return newTimings(0), nil
	}

	timings := newTimings(len(ranges))
	pool, err := NewWorkerPool(len(ranges), opts...)
	if err != nil {
		return timings, err
	}

	for i, r := range ranges {
		pool.Submit(func() error {
			start := time.Now()

			part := slices.Clone(data[r.Start:r.End])
			slices.SortFunc(part, cmp)
			copy(data[r.Start:r.End], part)

			timings.record(i, time.Since(start))
			return nil
		})
	}

	if err := pool.Wait(); err != nil {
		if poolErr, ok := err.(*PoolError); ok {
			for _, f := range poolErr.Failures {
				if f.Partition < len(ranges) {
					f.Range = ranges[f.Partition]
				}
			}
		}
		return timings, err
	}
	return timings, nil
}
