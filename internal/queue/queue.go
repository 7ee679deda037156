// Package queue is the fire-and-forget task runner behind background
// matching. Tasks enqueued under the same key start in enqueue order; a
// failing or panicking task is logged and never stalls the tasks behind it.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Task is the unit of deferred work. The context is the queue's; tasks should
// honour its cancellation on long operations.
type Task func(ctx context.Context) error

// Queue accepts named tasks and hands them to its executor. Enqueue is
// synchronous and never blocks; callers get no completion signal by design.
type Queue struct {
	executor Executor
	logger   *zap.Logger

	mu     sync.Mutex
	closed bool
}

// New creates a queue with the production per-key executor.
func New(logger *zap.Logger) *Queue {
	return NewWithExecutor(NewKeyedExecutor(), logger)
}

// NewWithExecutor creates a queue with a custom executor. Tests pass
// Immediate{} to run tasks synchronously.
func NewWithExecutor(executor Executor, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Queue{executor: executor, logger: logger}
}

// Enqueue schedules fn under the given key and returns immediately. Tasks
// sharing a key are started strictly in enqueue order. The closed check and
// the submission happen under one lock so Close cannot begin waiting between
// them.
func (q *Queue) Enqueue(key, name string, fn Task) {
	id := uuid.NewString()
	enqueuedAt := time.Now()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.logger.Warn("task rejected: queue closed",
			zap.String("queue_key", key),
			zap.String("task", name),
		)
		return
	}

	q.executor.Submit(key, func() {
		q.run(id, key, name, enqueuedAt, fn)
	})
}

// run executes one task with failure isolation: errors and panics are logged
// with identifying context and swallowed.
func (q *Queue) run(id, key, name string, enqueuedAt time.Time, fn Task) {
	fields := []zap.Field{
		zap.String("task_id", id),
		zap.String("queue_key", key),
		zap.String("task", name),
		zap.Duration("queued_for", time.Since(enqueuedAt)),
	}

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task panicked", append(fields, zap.String("panic", fmt.Sprint(r)))...)
		}
	}()

	if err := fn(context.Background()); err != nil {
		q.logger.Error("task failed", append(fields, zap.Error(err))...)
		return
	}

	q.logger.Debug("task completed", fields...)
}

// Close stops accepting new tasks and waits for accepted ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.executor.Wait()
}
