package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/deffeddef/invoice-extractor-app/internal/common"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// ProcessorQueue parses files on a fixed pool of workers.
// Inference is still serialized by the model; workers overlap text extraction and I/O.
type ProcessorQueue struct {
	parser   Parser
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	outDir   string
	onResult func(Outcome)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithOutDir makes workers write "<stem>.json" envelopes into dir.
func WithOutDir(dir string) Option {
	return func(q *ProcessorQueue) { q.outDir = dir }
}

// WithResultHandler is called from the worker goroutine after each file.
func WithResultHandler(fn func(Outcome)) Option {
	return func(q *ProcessorQueue) { q.onResult = fn }
}

func NewProcessorQueue(parser Parser, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		parser:  parser,
		logger:  logger,
		workers: 2,
		timeout: 5 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.start", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					if job.RequestID != "" {
						ctx = common.WithRequestID(ctx, job.RequestID)
					}
					o := ProcessFile(ctx, q.parser, job.Path, q.outDir)
					cancel()

					switch {
					case o.Err != "":
						q.logger.Error("queue.job.failed", "worker_id", workerID, "path", job.Path, "error", o.Err)
					case !o.Result.OK():
						q.logger.Warn("queue.job.rejected", "worker_id", workerID, "path", job.Path, "error_message", o.Result.ErrorMessage)
					default:
						q.logger.Info("queue.job.ok", "worker_id", workerID, "path", job.Path,
							"out", o.OutPath, "wait_ms", time.Since(job.SubmittedAt).Milliseconds())
					}
					if q.onResult != nil {
						q.onResult(o)
					}
				}

				q.logger.Debug("queue.worker.stop", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue blocks while the buffer is full, or until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queue.job.enqueued", "path", job.Path)
		return nil
	default:
	}
	q.logger.Warn("queue.full", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain, or for ctx.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
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
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.ok")
	}
}
