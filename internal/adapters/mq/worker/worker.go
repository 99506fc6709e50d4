// Package worker drains the write-back queue into the cache store.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/pedra/atlas/internal/adapters/mq/queue"
	"github.com/pedra/atlas/internal/adapters/repository"
	"github.com/pedra/atlas/pkg/logger"
	"github.com/pedra/atlas/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
	upsertTimeout           = 15 * time.Second
)

// Upserter is the slice of the store the workers need.
type Upserter interface {
	UpsertLocations(ctx context.Context, rows []repository.LocationRow) error
	UpsertEvents(ctx context.Context, rows []repository.EventRow) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes write-back jobs against the store.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue Queue
	store Upserter
	name  string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, store Upserter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		store:    store,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "write-back failed", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob upserts one job's rows. Upsert failures never propagate
// to any caller; they are logged and counted here and the job is
// dropped.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) error {
	ctx, cancel := context.WithTimeout(ctx, upsertTimeout)
	defer cancel()

	if len(job.Locations) > 0 {
		if err := w.store.UpsertLocations(ctx, job.Locations); err != nil {
			metrics.RecordWritebackError("location")
			return fmt.Errorf("upserting %d locations: %w", len(job.Locations), err)
		}
		metrics.RecordWritebackUpserts("location", len(job.Locations))
		w.logger.Debug(ctx, "locations written back",
			logger.Int("rows", len(job.Locations)),
			logger.Duration("queued_for", time.Since(job.EnqueuedAt)))
	}

	if len(job.Events) > 0 {
		if err := w.store.UpsertEvents(ctx, job.Events); err != nil {
			metrics.RecordWritebackError("event")
			return fmt.Errorf("upserting %d events: %w", len(job.Events), err)
		}
		metrics.RecordWritebackUpserts("event", len(job.Events))
		w.logger.Debug(ctx, "events written back",
			logger.Int("rows", len(job.Events)),
			logger.Duration("queued_for", time.Since(job.EnqueuedAt)))
	}

	return nil
}

// Pool manages multiple workers draining one queue.
type Pool struct {
	workers []*InMemoryWorker

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, store Upserter) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := range pool.workers {
		pool.workers[i] = NewInMemoryWorker(q, store,
			WithName("worker-"+strconv.Itoa(i)))
	}
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop stops all workers, waiting briefly for each.
func (p *Pool) Stop() {
	close(p.shutdown)
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool, letting
// in-flight jobs finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
