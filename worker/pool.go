package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/xraph/conveyor/id"
	"github.com/xraph/conveyor/queue"
)

// Pool manages the fixed set of worker goroutines draining the shared
// task queue. Workers block in Pop while the queue is empty; closing
// the queue is the shutdown broadcast that makes every worker exit
// after finishing its current task.
type Pool struct {
	queue    *queue.Queue
	executor *Executor
	workers  int
	workerID id.WorkerID
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopped bool
	wg      sync.WaitGroup
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolWorkers sets the number of worker goroutines.
func WithPoolWorkers(n int) PoolOption {
	return func(p *Pool) { p.workers = n }
}

// NewPool creates a worker pool draining q.
func NewPool(q *queue.Queue, executor *Executor, logger *slog.Logger, opts ...PoolOption) *Pool {
	p := &Pool{
		queue:    q,
		executor: executor,
		workers:  1,
		workerID: id.NewWorkerID(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WorkerID returns the pool's unique worker identifier.
func (p *Pool) WorkerID() id.WorkerID { return p.workerID }

// Workers returns the configured worker count.
func (p *Pool) Workers() int { return p.workers }

// Start launches the worker goroutines. It returns immediately and is
// a no-op if the pool is already running.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true

	p.logger.Info("worker pool starting",
		slog.String("worker_id", p.workerID.String()),
		slog.Int("workers", p.workers),
	)

	for range p.workers {
		p.wg.Add(1)
		go p.runWorker()
	}

	return nil
}

// Stop waits for every worker to finish its current task and exit,
// joining each goroutine exactly once. The queue must already be
// closed; Stop itself only waits. If the context has a deadline and it
// expires first, Stop returns the context error with workers still
// draining in the background. Stop is idempotent.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	p.logger.Info("worker pool stopping", slog.String("worker_id", p.workerID.String()))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out")
		return ctx.Err()
	}
}

// runWorker is the loop run by each worker goroutine: pop one task,
// execute it, repeat until the queue reports shutdown.
func (p *Pool) runWorker() {
	defer p.wg.Done()

	for {
		it, ok := p.queue.Pop()
		if !ok {
			return
		}
		p.executor.Execute(context.Background(), it)
	}
}
