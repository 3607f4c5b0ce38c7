package conveyor

import "context"

// Job is a client-defined unit of work that decomposes into tasks.
//
// Produce is invoked exactly once per activation. It may push any
// number of tasks through the sink; every pushed task is tagged with
// this job's handle. Produce must return before the job can be
// considered fully submitted — tasks pushed after Produce returns are
// not accounted for.
//
// OnComplete is invoked exactly once per activation, after every task
// the activation produced has finished and before the job is observably
// done to any waiter.
type Job interface {
	Produce(ctx context.Context, sink TaskSink) error
	OnComplete(ctx context.Context) error
}

// Task is one independently executable unit of work belonging to
// exactly one job. Process is invoked exactly once, by a single worker.
//
// Tasks must not block indefinitely: a blocked task starves a worker
// slot for its duration. This is a client obligation the engine does
// not enforce.
type Task interface {
	Process(ctx context.Context) error
}

// TaskSink is the capability handed to a job's Produce step. Tasks
// pushed through it are bound to the producing job's handle; the job
// never needs a back-reference to the engine.
//
// Push blocks while the task queue is at capacity and fails with
// ErrShuttingDown once engine shutdown has begun.
type TaskSink interface {
	Push(ctx context.Context, t Task) error
}
