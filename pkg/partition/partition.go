package partition

import "fmt"

// Range is a half-open range [Start, End) over ordering positions.
type Range struct {
	Start int
	End   int
}

// Len returns the number of positions in the range
func (r Range) Len() int {
	return r.End - r.Start
}

// Empty reports whether the range covers no positions
func (r Range) Empty() bool {
	return r.End <= r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Split divides [0, n) into exactly workers contiguous ranges whose sizes
// differ by at most one. Range i is [n*i/workers, n*(i+1)/workers).
//
// A worker count below one is treated as one. When workers > n the trailing
// ranges are empty. For n <= 1 the result is a no-op partitioning and
// callers should skip sorting.
func Split(n, workers int) []Range {
	if workers < 1 {
		workers = 1
	}
	if n < 0 {
		n = 0
	}

	ranges := make([]Range, workers)
	for i := range ranges {
		// int64 keeps n*(i+1) from overflowing on 32-bit platforms
		ranges[i] = Range{
			Start: int(int64(n) * int64(i) / int64(workers)),
			End:   int(int64(n) * int64(i+1) / int64(workers)),
		}
	}
	return ranges
}

// Total returns the number of positions covered by ranges
func Total(ranges []Range) int {
	total := 0
	for _, r := range ranges {
		total += r.Len()
	}
	return total
}

// NonEmpty returns the indexes of ranges that contain at least one position
func NonEmpty(ranges []Range) []int {
	idx := make([]int, 0, len(ranges))
	for i, r := range ranges {
		if !r.Empty() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Metrics describes how evenly a partitioning spreads work
type Metrics struct {
	Sizes       []int   // Positions per range
	MinSize     int     // Smallest range
	MaxSize     int     // Largest range
	EmptyRanges int     // Ranges with no positions
	LoadBalance float64 // 0-1 (1 = perfect balance)
}

// ComputeMetrics analyzes partition quality
func ComputeMetrics(ranges []Range) Metrics {
	m := Metrics{Sizes: make([]int, len(ranges))}
	if len(ranges) == 0 {
		return m
	}

	total := 0
	for i, r := range ranges {
		size := r.Len()
		m.Sizes[i] = size
		total += size
		if i == 0 || size < m.MinSize {
			m.MinSize = size
		}
		if size > m.MaxSize {
			m.MaxSize = size
		}
		if size == 0 {
			m.EmptyRanges++
		}
	}

	// Variance from the ideal share, normalized to 0-1
	avg := float64(total) / float64(len(ranges))
	variance := 0.0
	for _, size := range m.Sizes {
		diff := float64(size) - avg
		variance += diff * diff
	}
	variance /= float64(len(ranges))

	m.LoadBalance = 1.0
	if variance > 0 && avg > 0 {
		m.LoadBalance = 1.0 / (1.0 + variance/avg)
	}
	return m
}
