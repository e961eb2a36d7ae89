package scheduler

import (
	"context"
	"sync"
	"time"

	"SignalDigest/internal/ports"
)

// IntervalTicker runs a job immediately and then every interval in a single goroutine, so runs never overlap.
type IntervalTicker struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Ticker = (*IntervalTicker)(nil)

// NewIntervalTicker builds a ticker; non-positive intervals default to one hour.
func NewIntervalTicker(interval time.Duration) *IntervalTicker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &IntervalTicker{interval: interval}
}

// Start begins ticking. Calling Start on a running ticker is a no-op.
func (c *IntervalTicker) Start(ctx context.Context, job func(context.Context)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	c.stop, c.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		job(ctx)
		for {
			select {
			case <-ticker.C:
				job(ctx)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine and waits for an in-flight job, bounded by ctx.
func (c *IntervalTicker) Stop(ctx context.Context) error {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
