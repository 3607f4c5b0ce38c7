package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/id"
	"github.com/xraph/conveyor/job"
)

// runDriver runs one job activation end to end: produce, drain, hook,
// done. It owns the activation's lifecycle transitions; nothing else
// calls MarkDone.
func (e *Engine) runDriver(entry *job.Entry) {
	tracker := entry.Tracker
	jobID := tracker.JobID()
	generation := tracker.Generation()

	// The driver outlives the Submit caller, so it never borrows the
	// caller's context.
	ctx := context.Background()
	start := time.Now()

	tracker.MarkProducing()
	e.extensions.EmitJobStarted(ctx, jobID, generation)
	e.logger.Debug("job activation started",
		slog.String("job_id", jobID.String()),
		slog.Uint64("generation", generation),
	)

	if err := e.produce(ctx, entry.Job, jobID); err != nil {
		tracker.RecordError(err)
	}

	// No more tasks are coming from this activation. Once the
	// outstanding count drains to zero the job is quiescent.
	tracker.MarkAllSubmitted()
	tracker.WaitIdle()

	if !tracker.Aborted() {
		if err := e.complete(ctx, entry.Job, jobID); err != nil {
			tracker.RecordError(err)
		}
	}

	tracker.MarkDone(nil)
	elapsed := time.Since(start)
	e.extensions.EmitJobCompleted(ctx, jobID, elapsed, tracker.Err())

	if err := tracker.Err(); err != nil {
		e.logger.Warn("job activation finished with fault",
			slog.String("job_id", jobID.String()),
			slog.Uint64("generation", generation),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
		return
	}
	e.logger.Debug("job activation completed",
		slog.String("job_id", jobID.String()),
		slog.Uint64("generation", generation),
		slog.Duration("elapsed", elapsed),
	)
}

// produce runs the job's Produce with the job-bound sink, converting a
// panic into an activation fault so the driver can still settle.
func (e *Engine) produce(ctx context.Context, j conveyor.Job, jobID id.JobID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("conveyor: produce panicked: %v", r)
			e.logger.Error("panic in job produce",
				slog.String("job_id", jobID.String()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	return j.Produce(ctx, e.Sink(jobID))
}

// complete runs the job's completion hook, converting a panic into an
// activation fault.
func (e *Engine) complete(ctx context.Context, j conveyor.Job, jobID id.JobID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("conveyor: completion hook panicked: %v", r)
			e.logger.Error("panic in job completion hook",
				slog.String("job_id", jobID.String()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	return j.OnComplete(ctx)
}
