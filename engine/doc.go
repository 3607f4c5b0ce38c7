// Package engine composes the conveyor subsystems — registry, queue,
// worker pool, extension registry and cron scheduler — into a single
// Engine with the public job lifecycle API: Submit, SubmitTask,
// Restart, Extract, WaitDone, Shutdown.
//
// Every submitted job gets one driver goroutine per activation. The
// driver runs Produce, waits for the job's outstanding task count to
// drain to zero, runs the completion hook exactly once, and marks the
// activation done. Drivers are joined by Shutdown.
package engine
