// Package scheduler provides admission control for calls to the AI service.
// It bounds both the number of simultaneously in-flight requests and the rate
// at which new requests may start, so a burst of matching work cannot overload
// the rate-limited upstream.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config controls the two admission gates.
type Config struct {
	// MaxConcurrent caps simultaneously in-flight calls.
	MaxConcurrent int
	// RequestsPerInterval tokens are replenished every Interval.
	RequestsPerInterval int
	Interval            time.Duration
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if c.MaxConcurrent <= 0 {
		return errors.New("scheduler: max concurrent must be positive")
	}
	if c.RequestsPerInterval <= 0 {
		return errors.New("scheduler: requests per interval must be positive")
	}
	if c.Interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}
	return nil
}

// Scheduler is a token bucket combined with a concurrency cap. Waiters are
// admitted in FIFO order once both a slot and a token are available; completion
// order is not guaranteed. The wait list is unbounded: the gate protects the
// downstream dependency, callers bound their own submission volume.
type Scheduler struct {
	limiter *rate.Limiter
	slots   *semaphore.Weighted
	active  atomic.Int64
}

// New creates a Scheduler from a validated Config.
func New(cfg Config) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	every := cfg.Interval / time.Duration(cfg.RequestsPerInterval)

	return &Scheduler{
		limiter: rate.NewLimiter(rate.Every(every), cfg.RequestsPerInterval),
		slots:   semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}, nil
}

// Acquire blocks until the caller holds both a concurrency slot and a rate
// token, or until the context is cancelled. Every successful Acquire must be
// paired with a Release.
func (s *Scheduler) Acquire(ctx context.Context) error {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return errors.Wrap(err, "scheduler: waiting for slot")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		s.slots.Release(1)
		return errors.Wrap(err, "scheduler: waiting for token")
	}

	s.active.Add(1)
	return nil
}

// Release frees the concurrency slot held by a previous Acquire.
func (s *Scheduler) Release() {
	s.active.Add(-1)
	s.slots.Release(1)
}

// Do runs fn under admission control.
func (s *Scheduler) Do(ctx context.Context, fn func() error) error {
	if err := s.Acquire(ctx); err != nil {
		return err
	}
	defer s.Release()

	return fn()
}

// Active returns the number of currently admitted calls.
func (s *Scheduler) Active() int64 {
	return s.active.Load()
}
