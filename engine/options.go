package engine

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/ext"
	"github.com/xraph/conveyor/id"
	"github.com/xraph/conveyor/middleware"
)

// Option configures an Engine before its subsystems are built.
type Option func(*Engine)

// WithConfig replaces the entire configuration.
func WithConfig(cfg conveyor.Config) Option {
	return func(e *Engine) { e.config = cfg }
}

// WithWorkers sets the number of worker goroutines. Zero means
// automatic sizing from the available parallelism.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.config.Workers = n }
}

// WithQueueCapacity bounds the shared task queue. Zero means unbounded.
func WithQueueCapacity(n int) Option {
	return func(e *Engine) { e.config.QueueCapacity = n }
}

// WithShutdownTimeout sets how long Close waits for a graceful stop.
func WithShutdownTimeout(d time.Duration) Option {
	return func(e *Engine) { e.config.ShutdownTimeout = d }
}

// WithLogger sets the structured logger used by every subsystem.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithExtension registers a lifecycle extension.
func WithExtension(x ext.Extension) Option {
	return func(e *Engine) { e.pendingExts = append(e.pendingExts, x) }
}

// WithMiddleware appends task middleware. Middleware runs in
// registration order around every task; the panic recovery layer is
// always installed outermost regardless of what is registered here.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(e *Engine) { e.mws = append(e.mws, mws...) }
}

// WithTaskRateLimit throttles task submission across all jobs to
// perSecond sustained with the given burst. SubmitTask blocks (honoring
// its context) until the limiter grants a token.
func WithTaskRateLimit(perSecond float64, burst int) Option {
	return func(e *Engine) { e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithCronTickInterval sets the cron scheduler's polling interval.
func WithCronTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.cronTick = d }
}

// SubmitOption configures a single Submit call.
type SubmitOption func(*submitConfig)

type submitConfig struct {
	jobID id.JobID
}

// WithJobID submits the job under a caller-chosen handle instead of a
// freshly minted one. Submitting a second job under a handle that is
// still registered fails with conveyor.ErrDuplicateJob.
func WithJobID(jobID id.JobID) SubmitOption {
	return func(c *submitConfig) { c.jobID = jobID }
}
