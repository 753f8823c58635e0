// Package async bounds how many submissions are evaluated at once. Requests
// wait in a queue for one of a fixed number of workers.
package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/assignment-verifier/internal/common"
	"github.com/joseph-ayodele/assignment-verifier/internal/pipeline"
)

// Evaluator is satisfied by *pipeline.Processor.
type Evaluator interface {
	Evaluate(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error)
}

// Job is one queued evaluation.
type Job struct {
	ID          string
	Request     pipeline.Request
	SubmittedAt time.Time

	ctx   context.Context
	reply chan result
}

type result struct {
	out *pipeline.Outcome
	err error
}

type EvaluationQueue struct {
	eval    Evaluator
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*EvaluationQueue)

func WithWorkers(n int) Option {
	return func(q *EvaluationQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *EvaluationQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *EvaluationQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewEvaluationQueue(eval Evaluator, logger *slog.Logger, opts ...Option) *EvaluationQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &EvaluationQueue{
		eval:    eval,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *EvaluationQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *EvaluationQueue) run(workerID int, job Job) {
	// the caller gave up while the job was waiting
	if err := job.ctx.Err(); err != nil {
		job.reply <- result{err: err}
		return
	}
	ctx, cancel := context.WithTimeout(job.ctx, q.timeout)
	defer cancel()

	waited := time.Since(job.SubmittedAt)
	out, err := q.eval.Evaluate(ctx, job.Request)
	if err != nil {
		q.logger.Warn("evaluation failed", "worker_id", workerID, "job_id", job.ID, "waited_ms", waited.Milliseconds(), "error", err)
	} else {
		q.logger.Info("evaluation done", "worker_id", workerID, "job_id", job.ID, "waited_ms", waited.Milliseconds())
	}
	job.reply <- result{out: out, err: err}
}

// Evaluate queues req and blocks until a worker has evaluated it or ctx ends.
func (q *EvaluationQueue) Evaluate(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error) {
	job := Job{
		ID:          uuid.NewString(),
		Request:     req,
		SubmittedAt: time.Now(),
		ctx:         ctx,
		reply:       make(chan result, 1),
	}
	if err := q.enqueue(ctx, job); err != nil {
		return nil, err
	}
	select {
	case r := <-job.reply:
		return r.out, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for evaluation: %w", ctx.Err())
	}
}

func (q *EvaluationQueue) enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", job.ID)
		return ErrClosed
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued evaluation", "job_id", job.ID)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "job_id", job.ID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queueing evaluation: %w", ctx.Err())
	}
}

// ErrClosed is returned for submissions that arrive during shutdown.
var ErrClosed = common.NewAppError(common.CodeInternal, "the service is shutting down, please retry shortly", common.ErrInternal)

// Shutdown stops accepting work and waits for queued evaluations to finish.
func (q *EvaluationQueue) Shutdown(ctx context.Context) {
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
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
