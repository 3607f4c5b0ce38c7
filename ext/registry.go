package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/conveyor/id"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type jobSubmittedEntry struct {
	name string
	hook JobSubmitted
}

type jobStartedEntry struct {
	name string
	hook JobStarted
}

type jobCompletedEntry struct {
	name string
	hook JobCompleted
}

type jobRestartedEntry struct {
	name string
	hook JobRestarted
}

type jobExtractedEntry struct {
	name string
	hook JobExtracted
}

type taskExecutedEntry struct {
	name string
	hook TaskExecuted
}

type cronFiredEntry struct {
	name string
	hook CronFired
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	jobSubmitted []jobSubmittedEntry
	jobStarted   []jobStartedEntry
	jobCompleted []jobCompletedEntry
	jobRestarted []jobRestartedEntry
	jobExtracted []jobExtractedEntry
	taskExecuted []taskExecutedEntry
	cronFired    []cronFiredEntry
	shutdown     []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobSubmitted); ok {
		r.jobSubmitted = append(r.jobSubmitted, jobSubmittedEntry{name, h})
	}
	if h, ok := e.(JobStarted); ok {
		r.jobStarted = append(r.jobStarted, jobStartedEntry{name, h})
	}
	if h, ok := e.(JobCompleted); ok {
		r.jobCompleted = append(r.jobCompleted, jobCompletedEntry{name, h})
	}
	if h, ok := e.(JobRestarted); ok {
		r.jobRestarted = append(r.jobRestarted, jobRestartedEntry{name, h})
	}
	if h, ok := e.(JobExtracted); ok {
		r.jobExtracted = append(r.jobExtracted, jobExtractedEntry{name, h})
	}
	if h, ok := e.(TaskExecuted); ok {
		r.taskExecuted = append(r.taskExecuted, taskExecutedEntry{name, h})
	}
	if h, ok := e.(CronFired); ok {
		r.cronFired = append(r.cronFired, cronFiredEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Job event emitters
// ──────────────────────────────────────────────────

// EmitJobSubmitted notifies all extensions that implement JobSubmitted.
func (r *Registry) EmitJobSubmitted(ctx context.Context, jobID id.JobID) {
	for _, e := range r.jobSubmitted {
		if err := e.hook.OnJobSubmitted(ctx, jobID); err != nil {
			r.logHookError("OnJobSubmitted", e.name, err)
		}
	}
}

// EmitJobStarted notifies all extensions that implement JobStarted.
func (r *Registry) EmitJobStarted(ctx context.Context, jobID id.JobID, generation uint64) {
	for _, e := range r.jobStarted {
		if err := e.hook.OnJobStarted(ctx, jobID, generation); err != nil {
			r.logHookError("OnJobStarted", e.name, err)
		}
	}
}

// EmitJobCompleted notifies all extensions that implement JobCompleted.
func (r *Registry) EmitJobCompleted(ctx context.Context, jobID id.JobID, elapsed time.Duration, jobErr error) {
	for _, e := range r.jobCompleted {
		if err := e.hook.OnJobCompleted(ctx, jobID, elapsed, jobErr); err != nil {
			r.logHookError("OnJobCompleted", e.name, err)
		}
	}
}

// EmitJobRestarted notifies all extensions that implement JobRestarted.
func (r *Registry) EmitJobRestarted(ctx context.Context, jobID id.JobID) {
	for _, e := range r.jobRestarted {
		if err := e.hook.OnJobRestarted(ctx, jobID); err != nil {
			r.logHookError("OnJobRestarted", e.name, err)
		}
	}
}

// EmitJobExtracted notifies all extensions that implement JobExtracted.
func (r *Registry) EmitJobExtracted(ctx context.Context, jobID id.JobID) {
	for _, e := range r.jobExtracted {
		if err := e.hook.OnJobExtracted(ctx, jobID); err != nil {
			r.logHookError("OnJobExtracted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Task event emitters
// ──────────────────────────────────────────────────

// EmitTaskExecuted notifies all extensions that implement TaskExecuted.
func (r *Registry) EmitTaskExecuted(ctx context.Context, jobID id.JobID, elapsed time.Duration, taskErr error) {
	for _, e := range r.taskExecuted {
		if err := e.hook.OnTaskExecuted(ctx, jobID, elapsed, taskErr); err != nil {
			r.logHookError("OnTaskExecuted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitCronFired notifies all extensions that implement CronFired.
func (r *Registry) EmitCronFired(ctx context.Context, entryName string, jobID id.JobID) {
	for _, e := range r.cronFired {
		if err := e.hook.OnCronFired(ctx, entryName, jobID); err != nil {
			r.logHookError("OnCronFired", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the conveyor.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
