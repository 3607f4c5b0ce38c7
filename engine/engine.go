package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/cron"
	"github.com/xraph/conveyor/ext"
	"github.com/xraph/conveyor/id"
	"github.com/xraph/conveyor/job"
	"github.com/xraph/conveyor/middleware"
	"github.com/xraph/conveyor/queue"
	"github.com/xraph/conveyor/worker"
)

// Engine ties the registry, queue, worker pool, extension registry and
// cron scheduler together behind the public job lifecycle API.
type Engine struct {
	config conveyor.Config
	logger *slog.Logger

	registry   *job.Registry
	queue      *queue.Queue
	pool       *worker.Pool
	extensions *ext.Registry
	scheduler  *cron.Scheduler
	limiter    *rate.Limiter

	// drivers joins every per-activation goroutine at shutdown.
	drivers *errgroup.Group

	mws         []middleware.Middleware
	pendingExts []ext.Extension
	cronTick    time.Duration

	mu           sync.Mutex
	shuttingDown bool
	shutdownOnce sync.Once
	shutdownDone chan struct{}
	shutdownErr  error
}

// New builds an Engine, starts its worker pool and cron scheduler, and
// returns it ready for Submit.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		config:       conveyor.DefaultConfig(),
		logger:       slog.Default(),
		cronTick:     time.Second,
		drivers:      &errgroup.Group{},
		shutdownDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.registry = job.NewRegistry()
	e.queue = queue.New(e.config.QueueCapacity)

	e.extensions = ext.NewRegistry(e.logger)
	for _, x := range e.pendingExts {
		e.extensions.Register(x)
	}
	e.pendingExts = nil

	executor := worker.NewExecutor(e.registry, e.extensions, e.logger, e.mws...)
	e.pool = worker.NewPool(e.queue, executor, e.logger,
		worker.WithPoolWorkers(e.config.EffectiveWorkers()),
	)
	e.scheduler = cron.NewScheduler(e.Restart, e.extensions, e.logger,
		cron.WithTickInterval(e.cronTick),
	)

	if err := e.pool.Start(context.Background()); err != nil {
		return nil, err
	}
	if err := e.scheduler.Start(context.Background()); err != nil {
		return nil, err
	}

	e.logger.Info("engine started",
		slog.Int("workers", e.pool.Workers()),
		slog.Int("queue_capacity", e.config.QueueCapacity),
	)
	return e, nil
}

// Submit registers j under a fresh handle (or the one given via
// WithJobID), emits the submitted event, and launches the activation's
// driver goroutine. The handle is returned immediately; use WaitDone or
// IsDone to observe completion.
func (e *Engine) Submit(ctx context.Context, j conveyor.Job, opts ...SubmitOption) (id.JobID, error) {
	if j == nil {
		return id.Nil, conveyor.ErrNilJob
	}

	cfg := submitConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	jobID := cfg.jobID
	if jobID.IsNil() {
		jobID = id.NewJobID()
	}

	entry := &job.Entry{Job: j, Tracker: job.NewTracker(jobID)}

	e.mu.Lock()
	if e.shuttingDown {
		e.mu.Unlock()
		return id.Nil, conveyor.ErrShuttingDown
	}
	if err := e.registry.Register(jobID, entry); err != nil {
		e.mu.Unlock()
		return id.Nil, err
	}
	// The submitted event fires before the driver exists so hooks
	// observe submitted → started in order.
	e.extensions.EmitJobSubmitted(ctx, jobID)
	e.drivers.Go(func() error {
		e.runDriver(entry)
		return nil
	})
	e.mu.Unlock()

	return jobID, nil
}

// SubmitTask enqueues one task for the job identified by jobID. The
// job's outstanding count is incremented before the push so the count
// can never under-run the queue backlog; if the push fails because the
// engine is shutting down the increment is unwound and the activation
// is marked aborted.
//
// Blocks while the queue is at capacity, and while a configured rate
// limiter withholds a token (honoring ctx in the latter case).
func (e *Engine) SubmitTask(ctx context.Context, jobID id.JobID, t conveyor.Task) error {
	if t == nil {
		return conveyor.ErrNilTask
	}
	tracker, ok := e.registry.Tracker(jobID)
	if !ok {
		return conveyor.ErrJobNotFound
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	tracker.IncTask()
	if err := e.queue.Push(queue.Item{JobID: jobID, Task: t}); err != nil {
		tracker.Abort()
		tracker.TaskDone(err)
		return err
	}
	return nil
}

// Sink returns a TaskSink bound to jobID, the capability handed to
// Produce so a job can feed its own tasks without holding the engine.
func (e *Engine) Sink(jobID id.JobID) conveyor.TaskSink {
	return jobSink{engine: e, jobID: jobID}
}

type jobSink struct {
	engine *Engine
	jobID  id.JobID
}

var _ conveyor.TaskSink = jobSink{}

func (s jobSink) Push(ctx context.Context, t conveyor.Task) error {
	return s.engine.SubmitTask(ctx, s.jobID, t)
}

// Restart re-arms a finished job and launches a fresh activation: the
// tracker's signals and counter are reset, Produce runs again, and the
// completion hook fires again when the new activation drains.
//
// A nil handle is a no-op. An unknown handle fails with ErrJobNotFound;
// a job whose current activation has not finished fails with
// ErrJobActive and is left untouched.
func (e *Engine) Restart(ctx context.Context, jobID id.JobID) error {
	if jobID.IsNil() {
		return nil
	}

	e.mu.Lock()
	if e.shuttingDown {
		e.mu.Unlock()
		return conveyor.ErrShuttingDown
	}
	entry, ok := e.registry.Lookup(jobID)
	if !ok {
		e.mu.Unlock()
		return conveyor.ErrJobNotFound
	}
	if err := entry.Tracker.Reset(); err != nil {
		e.mu.Unlock()
		return err
	}
	// Restarted fires before the new activation's driver, mirroring
	// the submitted → started ordering on first submit.
	e.extensions.EmitJobRestarted(ctx, jobID)
	e.drivers.Go(func() error {
		e.runDriver(entry)
		return nil
	})
	e.mu.Unlock()

	return nil
}

// Extract removes a finished job from the registry and returns it,
// transferring ownership back to the caller. Fails with ErrJobActive
// while the job's activation is in flight (the job stays registered),
// and with ErrJobNotFound for unknown or already-extracted handles.
func (e *Engine) Extract(ctx context.Context, jobID id.JobID) (conveyor.Job, error) {
	if jobID.IsNil() {
		return nil, conveyor.ErrJobNotFound
	}
	j, err := e.registry.Extract(jobID)
	if err != nil {
		return nil, err
	}
	e.extensions.EmitJobExtracted(ctx, jobID)
	return j, nil
}

// IsDone reports whether the job's current activation has finished.
// A nil or unknown handle is vacuously done.
func (e *Engine) IsDone(jobID id.JobID) bool {
	if jobID.IsNil() {
		return true
	}
	tracker, ok := e.registry.Tracker(jobID)
	if !ok {
		return true
	}
	return tracker.Done()
}

// WaitDone blocks until the job's current activation finishes or ctx
// expires. A nil or unknown handle returns immediately.
func (e *Engine) WaitDone(ctx context.Context, jobID id.JobID) error {
	if jobID.IsNil() {
		return nil
	}
	tracker, ok := e.registry.Tracker(jobID)
	if !ok {
		return nil
	}
	select {
	case <-tracker.DoneChan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// JobErr returns the fault recorded for the job's current activation:
// the first task error, a Produce error, a completion hook error, or
// ErrShuttingDown for an aborted activation. Nil when the activation
// succeeded, is still running, or the handle is unknown.
func (e *Engine) JobErr(jobID id.JobID) error {
	tracker, ok := e.registry.Tracker(jobID)
	if !ok {
		return nil
	}
	return tracker.Err()
}

// QueueLen returns the number of tasks waiting in the shared queue.
func (e *Engine) QueueLen() int { return e.queue.Len() }

// Workers returns the size of the worker pool.
func (e *Engine) Workers() int { return e.pool.Workers() }

// Schedule registers a cron entry that restarts jobID whenever the
// expression comes due. Firings that find the job still active are
// skipped, not queued.
func (e *Engine) Schedule(name, schedule string, jobID id.JobID) (id.CronID, error) {
	return e.scheduler.Register(name, schedule, jobID)
}

// Cron exposes the scheduler for entry management beyond Schedule.
func (e *Engine) Cron() *cron.Scheduler { return e.scheduler }

// Shutdown stops the engine: new submissions are rejected, the queue is
// closed and its unexecuted backlog discarded, in-flight tasks run to
// completion, drivers are joined and the cron scheduler stopped.
// Jobs that lost tasks to the discard settle with ErrShuttingDown and
// skip their completion hook, but their done signal still fires so
// waiters are released.
//
// Idempotent: concurrent and repeated calls wait for the first
// shutdown to finish and return its result.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.shutdownOnce.Do(func() {
		e.mu.Lock()
		e.shuttingDown = true
		e.mu.Unlock()

		discarded := e.queue.Close()
		for _, it := range discarded {
			if tracker, ok := e.registry.Tracker(it.JobID); ok {
				tracker.Abort()
				tracker.TaskDone(nil)
			}
		}
		if len(discarded) > 0 {
			e.logger.Warn("discarded queued tasks at shutdown",
				slog.Int("count", len(discarded)),
			)
		}

		poolErr := e.pool.Stop(ctx)
		driversErr := e.waitDrivers(ctx)
		_ = e.scheduler.Stop(ctx)

		e.extensions.EmitShutdown(ctx)

		// Entries stay registered: JobErr and Extract remain
		// answerable after shutdown so recorded faults and job
		// ownership are not lost with the engine.
		e.logger.Info("engine stopped",
			slog.Int("jobs_registered", e.registry.Len()),
			slog.Int("tasks_discarded", len(discarded)),
		)

		e.shutdownErr = poolErr
		if e.shutdownErr == nil {
			e.shutdownErr = driversErr
		}
		close(e.shutdownDone)
	})

	select {
	case <-e.shutdownDone:
		return e.shutdownErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts the engine down with the configured shutdown timeout.
func (e *Engine) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), e.config.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(ctx)
}

// waitDrivers joins the driver goroutines, abandoning the wait when ctx
// expires. Drivers never return errors; faults live on their trackers.
func (e *Engine) waitDrivers(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		_ = e.drivers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
