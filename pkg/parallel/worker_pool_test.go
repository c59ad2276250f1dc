package parallel

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mustPool creates a pool or fails the test
func mustPool(t testing.TB, workers int) *WorkerPool {
	t.Helper()
	pool, err := NewWorkerPool(workers)
	if err != nil {
		t.Fatalf("NewWorkerPool(%d): %v", workers, err)
	}
	return pool
}

func TestWorkerPoolOverflow(t *testing.T) {
	_, err := NewWorkerPool(math.MaxInt)
	if !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("Expected ErrTooManyWorkers, got %v", err)
	}
}

func TestWorkerPoolSize(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{10, 10},
		{1000, 1000},
	}

	for _, tt := range tests {
		pool := mustPool(t, tt.requested)
		if pool.Workers() != tt.want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d", tt.requested, pool.Workers(), tt.want)
		}
		if cap(pool.taskQueue) != tt.want*2 {
			t.Errorf("NewWorkerPool(%d) buffer = %d, want %d", tt.requested, cap(pool.taskQueue), tt.want*2)
		}
		pool.Close()
	}
}

// TestWorkerPoolTaskExecution tests that all submitted tasks execute before Wait returns
func TestWorkerPoolTaskExecution(t *testing.T) {
	pool := mustPool(t, 5)

	numTasks := 50
	executed := make([]bool, numTasks)
	var mu sync.Mutex

	for i := 0; i < numTasks; i++ {
		pool.Submit(func() error {
			mu.Lock()
			executed[i] = true
			mu.Unlock()
			return nil
		})
	}

	if err := pool.Wait(); err != nil {
		t.Fatalf("Wait returned %v", err)
	}

	for i, exec := range executed {
		if !exec {
			t.Errorf("Task %d was not executed", i)
		}
	}
}

// TestWorkerPoolConcurrentSubmissions tests concurrent task submissions
func TestWorkerPoolConcurrentSubmissions(t *testing.T) {
	pool := mustPool(t, 10)

	numTasks := 100
	var counter int64

	var wg sync.WaitGroup
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Submit(func() error {
				atomic.AddInt64(&counter, 1)
				return nil
			})
		}()
	}

	wg.Wait()
	if err := pool.Wait(); err != nil {
		t.Fatalf("Wait returned %v", err)
	}

	if counter != int64(numTasks) {
		t.Errorf("Expected counter %d, got %d", numTasks, counter)
	}
}

// TestWorkerPoolCloseRace closes the pool while submissions are in flight
func TestWorkerPoolCloseRace(t *testing.T) {
	for iteration := 0; iteration < 50; iteration++ {
		pool := mustPool(t, 4)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					pool.Submit(func() error {
						time.Sleep(100 * time.Microsecond)
						return nil
					})
				}
			}()
		}

		time.Sleep(time.Millisecond)
		pool.Close()
		wg.Wait()
	}
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := mustPool(t, 4)

	if !pool.Submit(func() error { return nil }) {
		t.Error("Task submission before close should succeed")
	}

	pool.Close()

	ok := pool.Submit(func() error {
		t.Error("This task should never execute")
		return nil
	})
	if ok {
		t.Error("Task submission after close should return false")
	}
}

func TestWorkerPoolMultipleClose(t *testing.T) {
	pool := mustPool(t, 4)
	for i := 0; i < 20; i++ {
		pool.Submit(func() error {
			time.Sleep(100 * time.Microsecond)
			return nil
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Close()
		}()
	}
	wg.Wait()

	if err := pool.Wait(); err != nil {
		t.Errorf("Wait after Close returned %v", err)
	}
}

// TestWorkerPoolAggregatesErrors checks that every failure is reported with its task index
func TestWorkerPoolAggregatesErrors(t *testing.T) {
	pool := mustPool(t, 3)
	errBoom := errors.New("boom")

	var completed int64
	for i := 0; i < 9; i++ {
		pool.Submit(func() error {
			if i%3 == 0 {
				return errBoom
			}
			atomic.AddInt64(&completed, 1)
			return nil
		})
	}

	err := pool.Wait()
	if !errors.Is(err, ErrPoolFailed) {
		t.Fatalf("Expected ErrPoolFailed, got %v", err)
	}
	if !errors.Is(err, errBoom) {
		t.Errorf("Expected task cause to be reachable through errors.Is")
	}

	var poolErr *PoolError
	if !errors.As(err, &poolErr) {
		t.Fatalf("Expected *PoolError, got %T", err)
	}
	if poolErr.Tasks != 9 {
		t.Errorf("Tasks = %d, want 9", poolErr.Tasks)
	}
	failed := poolErr.Failed()
	if len(failed) != 3 || failed[0] != 0 || failed[1] != 3 || failed[2] != 6 {
		t.Errorf("Failed() = %v, want [0 3 6]", failed)
	}
	if completed != 6 {
		t.Errorf("completed = %d, want 6", completed)
	}
}

// TestWorkerPoolWithPanic tests that a panicking task fails alone
func TestWorkerPoolWithPanic(t *testing.T) {
	pool := mustPool(t, 4)

	var counter int64
	for i := 0; i < 5; i++ {
		pool.Submit(func() error {
			panic("intentional panic")
		})
	}
	for i := 0; i < 10; i++ {
		pool.Submit(func() error {
			atomic.AddInt64(&counter, 1)
			return nil
		})
	}

	err := pool.Wait()
	if !errors.Is(err, ErrTaskPanicked) {
		t.Fatalf("Expected ErrTaskPanicked, got %v", err)
	}
	var poolErr *PoolError
	if errors.As(err, &poolErr) && len(poolErr.Failures) != 5 {
		t.Errorf("Expected 5 failures, got %d", len(poolErr.Failures))
	}
	if counter != 10 {
		t.Errorf("Expected counter 10, got %d", counter)
	}
}

func BenchmarkWorkerPoolThroughput(b *testing.B) {
	pool := mustPool(b, 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Submit(func() error { return nil })
	}
	_ = pool.Wait()
}
