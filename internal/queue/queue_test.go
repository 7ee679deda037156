package queue

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

func TestSameKeyTasksRunInEnqueueOrder(t *testing.T) {
	t.Parallel()

	q := New(zap.NewNop())

	var (
		mu    sync.Mutex
		order []int
	)

	for i := 0; i < 20; i++ {
		i := i
		q.Enqueue("one-key", "ordered", func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}

	q.Close()

	if len(order) != 20 {
		t.Fatalf("expected all tasks to run, got %d", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("task %d ran out of order: %v", i, order)
		}
	}
}

func TestFailingTaskDoesNotStallSuccessors(t *testing.T) {
	t.Parallel()

	q := New(zap.NewNop())

	var (
		mu   sync.Mutex
		runs []string
	)
	record := func(name string) {
		mu.Lock()
		runs = append(runs, name)
		mu.Unlock()
	}

	q.Enqueue("k", "fails", func(context.Context) error {
		record("fails")
		return errors.New("boom")
	})
	q.Enqueue("k", "panics", func(context.Context) error {
		record("panics")
		panic("kaboom")
	})
	q.Enqueue("k", "succeeds", func(context.Context) error {
		record("succeeds")
		return nil
	})

	q.Close()

	if len(runs) != 3 || runs[2] != "succeeds" {
		t.Fatalf("expected all three tasks to run in order, got %v", runs)
	}
}

func TestClosedQueueRejectsTasks(t *testing.T) {
	t.Parallel()

	q := New(zap.NewNop())
	q.Close()

	ran := false
	q.Enqueue("k", "late", func(context.Context) error {
		ran = true
		return nil
	})

	if ran {
		t.Fatal("task must not run after close")
	}
}

func TestEnqueueRacingCloseIsSafe(t *testing.T) {
	t.Parallel()

	q := New(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue("k", "concurrent", func(context.Context) error { return nil })
		}()
	}

	// Close may overlap the enqueues above; every task either runs before the
	// queue drains or is rejected, and neither outcome may panic.
	q.Close()
	wg.Wait()

	ran := false
	q.Enqueue("k", "late", func(context.Context) error {
		ran = true
		return nil
	})
	if ran {
		t.Fatal("task must not run after close")
	}
}

func TestImmediateExecutorRunsInline(t *testing.T) {
	t.Parallel()

	q := NewWithExecutor(Immediate{}, zap.NewNop())

	ran := false
	q.Enqueue("k", "inline", func(context.Context) error {
		ran = true
		return nil
	})

	if !ran {
		t.Fatal("immediate executor should run the task before enqueue returns")
	}
}

func TestDistinctKeysMakeIndependentProgress(t *testing.T) {
	t.Parallel()

	e := NewKeyedExecutor()

	blocked := make(chan struct{})
	release := make(chan struct{})

	e.Submit("slow", func() {
		close(blocked)
		<-release
	})

	<-blocked

	done := make(chan struct{})
	e.Submit("fast", func() { close(done) })

	// The fast key must complete while the slow key is still stuck.
	<-done
	close(release)
	e.Wait()
}
