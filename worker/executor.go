// Package worker provides the task execution engine — an Executor that
// runs dequeued tasks through middleware, and a Pool that manages the
// fixed set of worker goroutines draining the shared queue.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/conveyor/ext"
	"github.com/xraph/conveyor/id"
	"github.com/xraph/conveyor/job"
	"github.com/xraph/conveyor/middleware"
	"github.com/xraph/conveyor/queue"
)

// TrackerResolver resolves a job handle to its completion tracker.
// job.Registry satisfies this interface; the indirection keeps the
// worker package independent of registry internals.
type TrackerResolver interface {
	Tracker(jobID id.JobID) (*job.Tracker, bool)
}

// Executor runs a single task through the middleware chain, settles the
// owning job's outstanding count, and emits the task lifecycle event.
type Executor struct {
	resolver   TrackerResolver
	extensions *ext.Registry
	mw         middleware.Middleware
	logger     *slog.Logger
}

// NewExecutor creates an Executor. The Recover middleware is always
// installed outermost: a panicking task must still settle its job's
// counter, or the job would stall forever.
func NewExecutor(
	resolver TrackerResolver,
	extensions *ext.Registry,
	logger *slog.Logger,
	mws ...middleware.Middleware,
) *Executor {
	chain := append([]middleware.Middleware{middleware.Recover(logger)}, mws...)
	return &Executor{
		resolver:   resolver,
		extensions: extensions,
		mw:         middleware.Chain(chain...),
		logger:     logger,
	}
}

// Execute runs one dequeued task. The task's error (or recovered panic)
// is recorded on the owning job's tracker, never returned to the pool:
// a task failure is a job-level fact, not a worker-level one.
func (e *Executor) Execute(ctx context.Context, it queue.Item) {
	start := time.Now()

	terminal := func(ctx context.Context) error {
		return it.Task.Process(ctx)
	}

	err := e.mw(ctx, it.JobID, terminal)
	elapsed := time.Since(start)

	tracker, ok := e.resolver.Tracker(it.JobID)
	if !ok {
		// The job was removed while its task was in flight. Extraction
		// of a running job is a documented caller violation; all the
		// executor can do is say so.
		e.logger.Warn("no tracker for executed task",
			slog.String("job_id", it.JobID.String()),
		)
		e.extensions.EmitTaskExecuted(ctx, it.JobID, elapsed, err)
		return
	}

	tracker.TaskDone(err)
	e.extensions.EmitTaskExecuted(ctx, it.JobID, elapsed, err)
}
