// Package job defines the per-job completion-tracking machinery and the
// uniqueness-checked job registry.
//
// # Tracker
//
// A [Tracker] accounts for one registered job. Per activation it holds
// an atomic outstanding-task counter, a one-shot "all tasks submitted"
// signal and a one-shot "done" signal, and progresses through a state
// machine:
//
//	pending → producing → awaiting_tasks → completing → done
//
// The counter is incremented when a task is created and decremented
// when a worker finishes it. Waiting for completion is a blocking wait
// on "counter reaches zero" — O(1) per check, correct regardless of
// queue depth, and correct even for tasks that have left the queue and
// are still executing on a worker. Scanning the queue for a job's tasks
// would miss exactly those in-flight tasks; the counter is the only
// design this package supports.
//
// [Tracker.Reset] re-arms both one-shot signals and bumps the
// activation generation, re-entering pending. It is only legal once the
// prior activation is done.
//
// # Registry
//
// [Registry] owns registered jobs and enforces at-most-one live
// registration per handle. Extraction returns ownership to the caller
// and is only legal once the job is done.
package job
