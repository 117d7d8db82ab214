package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kade-connect/pricescout/internal/monitoring"
	"github.com/kade-connect/pricescout/internal/pipeline"
)

// Job is one queued submission.
type Job struct {
	SubmissionID uuid.UUID
	Request      pipeline.Request
	SubmittedAt  time.Time
}

// Runner is the processing dependency; satisfied by *pipeline.Processor.
type Runner interface {
	Process(ctx context.Context, req pipeline.Request) pipeline.Outcome
}

// ResultSink receives finished outcomes, e.g. the product repository.
type ResultSink interface {
	StoreOutcome(ctx context.Context, submissionID uuid.UUID, outcome pipeline.Outcome) error
}

// Queue runs pipeline jobs on a bounded worker pool. Runs are independent,
// so workers share nothing beyond the processor itself.
type Queue struct {
	runner  Runner
	sink    ResultSink
	logger  *slog.Logger
	metrics *monitoring.Metrics
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func WithMetrics(m *monitoring.Metrics) Option {
	return func(q *Queue) { q.metrics = m }
}

func NewQueue(runner Runner, sink ResultSink, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		runner:  runner,
		sink:    sink,
		logger:  logger,
		workers: 4,
		timeout: 2 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					if q.metrics != nil {
						q.metrics.QueueDepth.Dec()
					}
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					outcome := q.runner.Process(ctx, job.Request)

					if q.sink != nil {
						if err := q.sink.StoreOutcome(ctx, job.SubmissionID, outcome); err != nil {
							q.logger.Error("store outcome failed", "worker_id", workerID, "submission_id", job.SubmissionID, "error", err)
						}
					}
					cancel()

					if outcome.Succeeded {
						q.logger.Info("processed submission", "worker_id", workerID, "submission_id", job.SubmissionID, "elapsed_ms", outcome.ElapsedMS)
					} else {
						q.logger.Error("submission failed", "worker_id", workerID, "submission_id", job.SubmissionID, "reason", outcome.FailureReason)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue queues a submission. A full queue blocks (backpressure) rather
// than dropping work.
func (q *Queue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "submission_id", job.SubmissionID)
		return nil
	}
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue full, applying backpressure", "submission_id", job.SubmissionID)
		q.ch <- job
	}
	if q.metrics != nil {
		q.metrics.QueueDepth.Inc()
	}
	q.logger.Info("queued submission", "submission_id", job.SubmissionID)
	return nil
}

// Shutdown stops intake and waits for in-flight jobs, bounded by ctx.
func (q *Queue) Shutdown(ctx context.Context) {
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
