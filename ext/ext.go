// Package ext defines the extension system for the conveyor.
// Extensions are notified of lifecycle events (job submitted, task
// executed, job completed, etc.) and can react to them — logging,
// metrics, tracing, etc.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/conveyor/id"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Job lifecycle hooks
// ──────────────────────────────────────────────────

// JobSubmitted is called after a job is successfully registered.
type JobSubmitted interface {
	OnJobSubmitted(ctx context.Context, jobID id.JobID) error
}

// JobStarted is called when a driver begins a job activation.
// generation is 0 for the initial submission and increments per restart.
type JobStarted interface {
	OnJobStarted(ctx context.Context, jobID id.JobID, generation uint64) error
}

// JobCompleted is called after an activation reaches done. jobErr is
// the activation's recorded fault, nil on clean completion.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, jobID id.JobID, elapsed time.Duration, jobErr error) error
}

// JobRestarted is called when a completed job is reset and reactivated.
type JobRestarted interface {
	OnJobRestarted(ctx context.Context, jobID id.JobID) error
}

// JobExtracted is called when a job's ownership is returned to the caller.
type JobExtracted interface {
	OnJobExtracted(ctx context.Context, jobID id.JobID) error
}

// ──────────────────────────────────────────────────
// Task lifecycle hooks
// ──────────────────────────────────────────────────

// TaskExecuted is called after a worker finishes a task, successful or
// not. taskErr carries the task's error or recovered panic.
type TaskExecuted interface {
	OnTaskExecuted(ctx context.Context, jobID id.JobID, elapsed time.Duration, taskErr error) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// CronFired is called when a cron entry fires and restarts a job.
type CronFired interface {
	OnCronFired(ctx context.Context, entryName string, jobID id.JobID) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
