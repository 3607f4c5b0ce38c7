package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/conveyor/id"
)

// Recover returns middleware that recovers from panics in client task
// code. Panics are converted to errors and logged with a stack trace.
//
// An unrecovered panic would kill the worker goroutine before the
// owning job's outstanding count is settled, stalling that job forever.
// The worker pool therefore always installs this middleware outermost.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, jobID id.JobID, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("task panicked",
					slog.String("job_id", jobID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in task of job %s: %v", jobID, r)
			}
		}()
		return next(ctx)
	}
}
