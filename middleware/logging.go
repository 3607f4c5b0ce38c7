package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/conveyor/id"
)

// Logging returns middleware that logs task completion with its owning
// job and duration. Start lines are at debug level to keep high-volume
// conveyors quiet by default.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, jobID id.JobID, next Handler) error {
		logger.Debug("task started",
			slog.String("job_id", jobID.String()),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("task failed",
				slog.String("job_id", jobID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("task completed",
				slog.String("job_id", jobID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
