// Package merge combines independently sorted partitions into one sorted
// sequence.
package merge

import (
	"container/heap"

	"github.com/dd0wney/cluso-roster/pkg/partition"
)

// cursor walks one sorted partition
type cursor struct {
	partition int
	pos       int
	end       int
}

// cursorHeap is a min-heap of cursors keyed by the element under each cursor.
// Equal elements are ordered by partition index so the merge is stable
// across partitions.
type cursorHeap[T any] struct {
	data    []T
	cmp     func(a, b T) int
	cursors []*cursor
}

func (h *cursorHeap[T]) Len() int { return len(h.cursors) }

func (h *cursorHeap[T]) Less(i, j int) bool {
	a, b := h.cursors[i], h.cursors[j]
	if c := h.cmp(h.data[a.pos], h.data[b.pos]); c != 0 {
		return c < 0
	}
	return a.partition < b.partition
}

func (h *cursorHeap[T]) Swap(i, j int) { h.cursors[i], h.cursors[j] = h.cursors[j], h.cursors[i] }

func (h *cursorHeap[T]) Push(x any) { h.cursors = append(h.cursors, x.(*cursor)) }

func (h *cursorHeap[T]) Pop() any {
	old := h.cursors
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	h.cursors = old[:n-1]
	return c
}

// Merge returns a new slice holding every element of the given ranges of
// data in ascending cmp order. Each range must already be sorted by cmp.
// Ties between ranges go to the lower range index. data is not modified.
//
// Runs in O(N log W) for N elements across W non-empty ranges.
func Merge[T any](data []T, ranges []partition.Range, cmp func(a, b T) int) []T {
	h := &cursorHeap[T]{
		data:    data,
		cmp:     cmp,
		cursors: make([]*cursor, 0, len(ranges)),
	}
	for i, r := range ranges {
		if !r.Empty() {
			h.cursors = append(h.cursors, &cursor{partition: i, pos: r.Start, end: r.End})
		}
	}
	heap.Init(h)

	out := make([]T, 0, partition.Total(ranges))
	for h.Len() > 0 {
		c := h.cursors[0]
		out = append(out, data[c.pos])
		c.pos++
		if c.pos == c.end {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}
	return out
}

// IsSorted reports whether data is in non-decreasing cmp order
func IsSorted[T any](data []T, cmp func(a, b T) int) bool {
	for i := 1; i < len(data); i++ {
		if cmp(data[i-1], data[i]) > 0 {
			return false
		}
	}
	return true
}
