package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnavailable is returned when a job is offered to a queue that is not running.
var ErrUnavailable = errors.New("queue unavailable")

// Job is one unit of work carrying a typed payload.
type Job[P any] struct {
	ID       string
	Type     string
	Payload  P
	Attempt  int
	Enqueued time.Time

	done chan<- Outcome[P]
}

// Outcome is the final state of a job once it succeeded or ran out of attempts.
type Outcome[P any] struct {
	Job Job[P]
	Err error
}

// Handler processes a job.
type Handler[P any] func(context.Context, Job[P]) error

// QueueConfig configures worker pool behaviour. MaxRetries of zero disables retries.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue is a bounded in-memory worker pool.
type Queue[P any] struct {
	name    string
	handler Handler[P]
	cfg     QueueConfig
	logger  *zap.Logger

	jobs    chan Job[P]
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a queue that runs handler on cfg.Workers goroutines once started.
func NewQueue[P any](name string, handler Handler[P], cfg QueueConfig) *Queue[P] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue[P]{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		jobs:    make(chan Job[P], cfg.BufferSize),
	}
}

// Start launches the workers. Later calls are no-ops.
func (q *Queue[P]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels workers and waits for them to exit. Jobs still buffered are dropped.
func (q *Queue[P]) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped")
}

// Enqueue pushes a job, blocking while the buffer is full.
func (q *Queue[P]) Enqueue(job Job[P]) error {
	q.mu.Lock()
	ctx, started := q.ctx, q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("%w: %s not started", ErrUnavailable, q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %s stopped", ErrUnavailable, q.name)
	case q.jobs <- job:
		return nil
	}
}

// RunBatch enqueues every job and waits for their outcomes, returned in completion order.
// Jobs the queue refuses are reported immediately with an ErrUnavailable outcome. If ctx ends
// first, the outcomes gathered so far are returned with ctx's error.
func (q *Queue[P]) RunBatch(ctx context.Context, batch []Job[P]) ([]Outcome[P], error) {
	done := make(chan Outcome[P], len(batch))
	out := make([]Outcome[P], 0, len(batch))
	pending := 0
	for _, job := range batch {
		job.done = done
		if err := q.Enqueue(job); err != nil {
			out = append(out, Outcome[P]{Job: job, Err: err})
			continue
		}
		pending++
	}
	for ; pending > 0; pending-- {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case o := <-done:
			out = append(out, o)
		}
	}
	return out, nil
}

func (q *Queue[P]) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			err := q.handler(q.ctx, job)
			if err != nil && q.retry(job, err) {
				continue
			}
			q.finish(job, err)
		}
	}
}

// retry schedules another attempt and reports whether it did.
func (q *Queue[P]) retry(job Job[P], err error) bool {
	job.Attempt++
	log := q.logger.With(zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Error(err))
	if job.Attempt > q.cfg.MaxRetries {
		log.Error("job failed")
		return false
	}
	log.Warn("job failed, retrying", zap.Int("attempt", job.Attempt))

	go func(j Job[P]) {
		timer := time.NewTimer(q.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.finish(j, err)
		case <-timer.C:
			if rerr := q.Enqueue(j); rerr != nil {
				log.Error("failed to requeue job", zap.NamedError("requeue", rerr))
				q.finish(j, err)
			}
		}
	}(job)
	return true
}

func (q *Queue[P]) finish(job Job[P], err error) {
	if job.done != nil {
		job.done <- Outcome[P]{Job: job, Err: err}
	}
}
