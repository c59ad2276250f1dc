package parallel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-roster/pkg/partition"
)

// ErrPoolFailed matches any *PoolError
var ErrPoolFailed = errors.New("worker pool: tasks failed")

// TaskError records the failure of one task. For sort passes Partition is
// the partition index and Range the positions it covered.
type TaskError struct {
	Partition int
	Range     partition.Range
	Cause     error
}

func (e *TaskError) Error() string {
	if e.Range.Empty() {
		return fmt.Sprintf("task %d: %v", e.Partition, e.Cause)
	}
	return fmt.Sprintf("partition %d %s: %v", e.Partition, e.Range, e.Cause)
}

func (e *TaskError) Unwrap() error {
	return e.Cause
}

// PoolError aggregates every failed task of one join. Failures are ordered
// by task index.
type PoolError struct {
	Tasks    int
	Failures []*TaskError
}

func (e *PoolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d tasks failed", len(e.Failures), e.Tasks)
	for _, f := range e.Failures {
		b.WriteString("; ")
		b.WriteString(f.Error())
	}
	return b.String()
}

// Is reports ErrPoolFailed as a match
func (e *PoolError) Is(target error) bool {
	return target == ErrPoolFailed
}

// Unwrap exposes every task failure to errors.Is and errors.As
func (e *PoolError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Failed returns the indexes of the failed tasks
func (e *PoolError) Failed() []int {
	idx := make([]int, len(e.Failures))
	for i, f := range e.Failures {
		idx[i] = f.Partition
	}
	return idx
}
