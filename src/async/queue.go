// Package async runs import jobs off the request path on a bounded
// worker pool. Delivery is at-least-once: the PENDING status guard in
// the job store makes duplicate deliveries harmless.
package async

import (
	"context"
	"sync"
	"time"

	"github.com/username/cardfolio/backend/src/logger"
)

// ProcessFunc handles one job id to a terminal state. It must never
// leave the job stuck; the import service guarantees that internally.
type ProcessFunc func(ctx context.Context, jobID string)

type ImportQueue struct {
	process ProcessFunc
	workers int
	timeout time.Duration

	ch   chan string
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ImportQueue)

func WithWorkers(n int) Option {
	return func(q *ImportQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ImportQueue) {
		if n > 0 {
			q.ch = make(chan string, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ImportQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewImportQueue(process ProcessFunc, opts ...Option) *ImportQueue {
	q := &ImportQueue{
		process: process,
		workers: 4,
		timeout: 2 * time.Minute,
		ch:      make(chan string, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ImportQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				logger.L.Info("Import worker started", "workerID", workerID)

				for jobID := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					q.process(ctx, jobID)
					cancel()
				}

				logger.L.Info("Import worker stopped", "workerID", workerID)
			}(i + 1)
		}
	})
}

// Enqueue schedules a job for processing. Blocks when the queue is
// full; a closed queue drops the job with a warning (the row stays
// PENDING and can be re-enqueued on restart).
func (q *ImportQueue) Enqueue(jobID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		logger.L.Warn("Cannot enqueue: import queue is shutting down", "jobID", jobID)
		return
	}
	select {
	case q.ch <- jobID:
		logger.L.Info("Queued import job for processing", "jobID", jobID)
	default:
		logger.L.Warn("Import queue full, applying backpressure", "jobID", jobID)
		q.ch <- jobID
	}
}

// Shutdown stops intake and waits for in-flight jobs until the
// context expires.
func (q *ImportQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		logger.L.Warn("Import queue shutdown interrupted by context")
	case <-done:
		logger.L.Info("Import queue drained, shutdown complete")
	}
}
