// Package middleware provides composable middleware for task execution.
//
// A [Middleware] is a function that wraps a task's Process call.
// Middleware are composed into a chain using [Chain] and applied by the
// worker pool around each execution. They are applied right-to-left:
// the first middleware in the slice is the outermost wrapper.
//
//	// logging → recover → task
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs owning job, duration, and outcome at each execution
//   - [Recover] — catches panics in client task code and converts them to
//     errors, so a panicking task still settles its job's outstanding count
//   - [Tracing] — wraps execution in an OpenTelemetry span
//   - [Metrics] — records per-task duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, jobID id.JobID, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware
