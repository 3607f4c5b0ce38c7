// Package conveyor provides an in-process concurrent execution engine:
// a fixed pool of workers draining a shared bounded task queue, with
// jobs that dynamically produce tasks and are notified exactly once
// when all of their tasks finish.
//
// Conveyor is designed as a library, not a service. Import it, implement
// [Job] and [Task] for your workload, and submit jobs to an engine.
//
// # Quick Start
//
//	eng, err := engine.New(
//	    engine.WithWorkers(8),
//	    engine.WithQueueCapacity(1024),
//	)
//	jobID, err := eng.Submit(ctx, myJob)
//	err = eng.WaitDone(ctx, jobID)
//
// # Architecture
//
// A job's Produce step pushes tasks tagged with the job's handle into
// the shared queue. Workers drain the queue and decrement the job's
// outstanding-task counter as each task completes. Once production is
// marked complete and the counter reaches zero, the job's OnComplete
// hook runs and every waiter is woken.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package conveyor
