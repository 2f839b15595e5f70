// Package accounting applies click increments off the request path.
package accounting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by Shutdown when the queue was already shut down.
var ErrClosed = errors.New("accounting queue closed")

// Counter persists one click for a link.
type Counter interface {
	IncrementClicks(ctx context.Context, linkID string) error
}

// Options tunes a Queue. Zero values take the defaults below.
type Options struct {
	Workers  int
	Capacity int
	Timeout  time.Duration
}

const (
	defaultWorkers  = 2
	defaultCapacity = 1024
	defaultTimeout  = 5 * time.Second
)

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.Capacity <= 0 {
		o.Capacity = defaultCapacity
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return o
}

// Stats is a point-in-time snapshot of the queue counters.
type Stats struct {
	Workers  int    `json:"worker_count"`
	Capacity int    `json:"capacity"`
	Pending  int    `json:"queue_length"`
	Recorded uint64 `json:"recorded"`
	Dropped  uint64 `json:"dropped"`
	Applied  uint64 `json:"applied"`
	Failed   uint64 `json:"failed"`
}

// Queue is a bounded, best-effort click accounting queue. Record never
// blocks: when the buffer is full, or the queue is shutting down, the click
// is dropped and counted as such.
type Queue struct {
	jobs    chan string
	done    chan struct{}
	counter Counter
	opts    Options
	logger  *slog.Logger
	wg      sync.WaitGroup
	once    sync.Once

	// intake orders Record's send against Shutdown closing done, so every
	// accepted click is buffered before the workers start draining.
	intake sync.RWMutex
	closed bool

	recorded atomic.Uint64
	dropped  atomic.Uint64
	applied  atomic.Uint64
	failed   atomic.Uint64
}

// NewQueue starts the workers and returns the running queue.
func NewQueue(counter Counter, opts Options, logger *slog.Logger) *Queue {
	opts = opts.withDefaults()
	q := &Queue{
		jobs:    make(chan string, opts.Capacity),
		done:    make(chan struct{}),
		counter: counter,
		opts:    opts,
		logger:  logger,
	}

	for i := 0; i < opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	logger.Info("click accounting queue started", "workers", opts.Workers, "capacity", opts.Capacity)
	return q
}

// Record schedules one click for linkID.
func (q *Queue) Record(linkID string) {
	q.intake.RLock()
	defer q.intake.RUnlock()
	if q.closed {
		q.dropped.Add(1)
		return
	}

	select {
	case q.jobs <- linkID:
		q.recorded.Add(1)
	default:
		q.dropped.Add(1)
		q.logger.Warn("click accounting queue full, dropping click", "link_id", linkID, "capacity", q.opts.Capacity)
	}
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	q.logger.Debug("click worker started", "worker", id)

	for {
		select {
		case linkID := <-q.jobs:
			q.apply(id, linkID)
		case <-q.done:
			q.drain(id)
			q.logger.Debug("click worker stopped", "worker", id)
			return
		}
	}
}

// drain applies whatever is still buffered once shutdown has begun.
func (q *Queue) drain(id int) {
	for {
		select {
		case linkID := <-q.jobs:
			q.apply(id, linkID)
		default:
			return
		}
	}
}

func (q *Queue) apply(id int, linkID string) {
	ctx, cancel := context.WithTimeout(context.Background(), q.opts.Timeout)
	defer cancel()

	if err := q.safeIncrement(ctx, linkID); err != nil {
		q.failed.Add(1)
		q.logger.Warn("click increment failed", "worker", id, "link_id", linkID, "error", err)
		return
	}
	q.applied.Add(1)
}

func (q *Queue) safeIncrement(ctx context.Context, linkID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return q.counter.IncrementClicks(ctx, linkID)
}

// Stats returns the current counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Workers:  q.opts.Workers,
		Capacity: q.opts.Capacity,
		Pending:  len(q.jobs),
		Recorded: q.recorded.Load(),
		Dropped:  q.dropped.Load(),
		Applied:  q.applied.Load(),
		Failed:   q.failed.Load(),
	}
}

// Shutdown stops accepting clicks and waits for the workers to drain the
// buffer, or for ctx to end. Calling it twice returns ErrClosed.
func (q *Queue) Shutdown(ctx context.Context) error {
	first := false
	q.once.Do(func() {
		q.intake.Lock()
		q.closed = true
		close(q.done)
		q.intake.Unlock()
		first = true
	})
	if !first {
		return ErrClosed
	}

	finished := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		s := q.Stats()
		q.logger.Info("click accounting queue stopped", "applied", s.Applied, "failed", s.Failed, "dropped", s.Dropped)
		return nil
	case <-ctx.Done():
		q.logger.Warn("click accounting queue shutdown timed out", "pending", len(q.jobs))
		return ctx.Err()
	}
}
