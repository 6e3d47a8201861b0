// Package ratelimit admits outbound work through a shared fixed-window queue.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Queue caps how many operations may start within each fixed window of
// Interval. Every caller sharing a Queue is throttled in aggregate.
type Queue struct {
	limit    int
	interval time.Duration
	now      func() time.Time

	mu          sync.Mutex
	windowStart time.Time
	started     int

	pending atomic.Int64
}

// New creates a queue admitting at most limit operation starts per interval.
func New(limit int, interval time.Duration) *Queue {
	if limit <= 0 {
		limit = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Queue{limit: limit, interval: interval, now: time.Now}
}

// NewRPS creates a queue allowing up to rps operation starts per second.
func NewRPS(rps int) *Queue {
	return New(rps, time.Second)
}

// Wait blocks until an operation may start or ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	if q == nil {
		return nil
	}
	for {
		q.mu.Lock()
		now := q.now()
		if q.windowStart.IsZero() || now.Sub(q.windowStart) >= q.interval {
			q.windowStart = now
			q.started = 0
		}
		if q.started < q.limit {
			q.started++
			q.mu.Unlock()
			return nil
		}
		delay := q.windowStart.Add(q.interval).Sub(now)
		q.mu.Unlock()

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Pending reports operations waiting for admission plus those in flight.
func (q *Queue) Pending() int {
	if q == nil {
		return 0
	}
	return int(q.pending.Load())
}

// Do submits fn to q and returns its result once it has run.
// fn is never started if ctx is done before admission.
func Do[T any](ctx context.Context, q *Queue, fn func(ctx context.Context) (T, error)) (T, error) {
	if q != nil {
		q.pending.Add(1)
		defer q.pending.Add(-1)
	}
	if err := q.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	return fn(ctx)
}
