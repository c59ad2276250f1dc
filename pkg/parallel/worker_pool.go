package parallel

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/dd0wney/cluso-roster/pkg/logging"
)

// Task is a unit of work run by the pool. A non-nil error marks it failed.
type Task func() error

// WorkerPool manages a pool of worker goroutines
type WorkerPool struct {
	workers   int
	taskQueue chan indexedTask
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
	submitted int          // Protected by mu (write lock in Submit)

	errMu    sync.Mutex
	failures []*TaskError

	logger logging.Logger
}

type indexedTask struct {
	index int
	run   Task
}

// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
var ErrTooManyWorkers = errors.New("worker count exceeds maximum")

// ErrTaskPanicked wraps the value recovered from a panicking task.
var ErrTaskPanicked = errors.New("task panicked")

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// PoolOption configures a WorkerPool
type PoolOption func(*WorkerPool)

// WithLogger sets the logger used for recovered panics
func WithLogger(logger logging.Logger) PoolOption {
	return func(wp *WorkerPool) {
		if logger != nil {
			wp.logger = logger
		}
	}
}

// NewWorkerPool creates a new worker pool with specified number of workers.
// Returns an error if the worker count exceeds MaxWorkers.
func NewWorkerPool(workers int, opts ...PoolOption) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}

	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan indexedTask, workers*2), // Buffer for 2x workers
		logger:    logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(pool)
	}

	pool.start()
	return pool, nil
}

// Workers returns the number of worker goroutines
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// start initializes the worker goroutines
func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// worker processes tasks from the queue
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		if err := wp.run(task); err != nil {
			wp.errMu.Lock()
			wp.failures = append(wp.failures, &TaskError{Partition: task.index, Cause: err})
			wp.errMu.Unlock()
		}
	}
}

// run executes one task, converting a panic into an error so the worker
// and the other tasks keep going
func (wp *WorkerPool) run(task indexedTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("worker panic recovered",
				logging.Int("task", task.index),
				logging.Any("panic", r),
			)
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return task.run()
}

// Submit adds a task to the worker pool. Tasks are numbered in submission
// order starting at zero; that number identifies the task in a PoolError.
// Returns false if the pool is closed, true if task was submitted
func (wp *WorkerPool) Submit(task Task) bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.closed {
		return false
	}

	index := wp.submitted
	wp.submitted++

	// Workers never take mu, so blocking on a full queue cannot deadlock
	wp.taskQueue <- indexedTask{index: index, run: task}
	return true
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		// Acquire write lock before closing
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Wait closes the pool, blocks until every submitted task has finished and
// returns a *PoolError describing the failed tasks, or nil.
func (wp *WorkerPool) Wait() error {
	wp.Close()

	wp.errMu.Lock()
	defer wp.errMu.Unlock()

	if len(wp.failures) == 0 {
		return nil
	}

	failures := make([]*TaskError, len(wp.failures))
	copy(failures, wp.failures)
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Partition < failures[j].Partition
	})
	return &PoolError{Tasks: wp.submitted, Failures: failures}
}
