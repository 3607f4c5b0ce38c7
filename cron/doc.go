// Package cron provides scheduled re-activation of registered jobs.
//
// A conveyor job stays in the registry after it completes; the cron
// scheduler makes it recurring by restarting it on a schedule.
//
// # Entry
//
// An [Entry] represents a recurring restart schedule:
//   - Schedule: standard 5-field cron expression or a descriptor such
//     as "@every 30s"
//   - JobID: the handle of the registered job to restart when fired
//   - Enabled: whether the entry fires
//
// # Registering an entry
//
//	jobID, _ := eng.Submit(ctx, reportJob)
//	eng.WaitDone(ctx, jobID)
//	cronID, _ := sched.Register("nightly-report", "0 3 * * *", jobID)
//
// # Scheduler
//
// The [Scheduler] evaluates due entries on every tick and restarts the
// corresponding job through the engine-supplied callback. An entry
// whose job is still mid-activation when the tick fires is skipped and
// retried on its next scheduled time. The [ext.CronFired] hook fires
// after each successful restart.
package cron
