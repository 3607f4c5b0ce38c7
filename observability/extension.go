package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/conveyor/ext"
	"github.com/xraph/conveyor/id"
)

// meterName is the instrumentation scope name for conveyor observability.
const meterName = "github.com/xraph/conveyor/observability"

// Compile-time interface checks.
var (
	_ ext.Extension    = (*MetricsExtension)(nil)
	_ ext.JobSubmitted = (*MetricsExtension)(nil)
	_ ext.JobStarted   = (*MetricsExtension)(nil)
	_ ext.JobCompleted = (*MetricsExtension)(nil)
	_ ext.JobRestarted = (*MetricsExtension)(nil)
	_ ext.JobExtracted = (*MetricsExtension)(nil)
	_ ext.TaskExecuted = (*MetricsExtension)(nil)
	_ ext.CronFired    = (*MetricsExtension)(nil)
)

// MetricsExtension records conveyor-wide lifecycle metrics via OTel.
// Register it as an engine extension to automatically track submission
// rates, activation counts, completion and failure rates, restarts,
// extractions, task throughput and job duration.
//
// When no MeterProvider is configured the OTel API hands back noop
// instruments, so the extension is free to register unconditionally.
type MetricsExtension struct {
	jobSubmitted metric.Int64Counter
	jobStarted   metric.Int64Counter
	jobCompleted metric.Int64Counter
	jobFailed    metric.Int64Counter
	jobRestarted metric.Int64Counter
	jobExtracted metric.Int64Counter
	taskExecuted metric.Int64Counter
	taskFailed   metric.Int64Counter
	cronFired    metric.Int64Counter
	jobDuration  metric.Float64Histogram
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. Use this variant to inject a specific MeterProvider
// for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}

	// On instrument-creation errors the OTel API returns noop
	// instruments, so the counters below are always safe to use.
	m.jobSubmitted, _ = meter.Int64Counter("conveyor.job.submitted",
		metric.WithDescription("Total jobs submitted"),
		metric.WithUnit("{job}"))
	m.jobStarted, _ = meter.Int64Counter("conveyor.job.started",
		metric.WithDescription("Total job activations started"),
		metric.WithUnit("{activation}"))
	m.jobCompleted, _ = meter.Int64Counter("conveyor.job.completed",
		metric.WithDescription("Total job activations completed"),
		metric.WithUnit("{activation}"))
	m.jobFailed, _ = meter.Int64Counter("conveyor.job.failed",
		metric.WithDescription("Total job activations completed with a recorded fault"),
		metric.WithUnit("{activation}"))
	m.jobRestarted, _ = meter.Int64Counter("conveyor.job.restarted",
		metric.WithDescription("Total job restarts"),
		metric.WithUnit("{restart}"))
	m.jobExtracted, _ = meter.Int64Counter("conveyor.job.extracted",
		metric.WithDescription("Total jobs extracted from the registry"),
		metric.WithUnit("{job}"))
	m.taskExecuted, _ = meter.Int64Counter("conveyor.task.executed",
		metric.WithDescription("Total tasks executed"),
		metric.WithUnit("{task}"))
	m.taskFailed, _ = meter.Int64Counter("conveyor.task.failed",
		metric.WithDescription("Total tasks that returned an error or panicked"),
		metric.WithUnit("{task}"))
	m.cronFired, _ = meter.Int64Counter("conveyor.cron.fired",
		metric.WithDescription("Total cron entry fires"),
		metric.WithUnit("{fire}"))
	m.jobDuration, _ = meter.Float64Histogram("conveyor.job.duration",
		metric.WithDescription("Duration of a job activation in seconds"),
		metric.WithUnit("s"))

	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Job lifecycle hooks ─────────────────────────────

// OnJobSubmitted implements ext.JobSubmitted.
func (m *MetricsExtension) OnJobSubmitted(ctx context.Context, _ id.JobID) error {
	m.jobSubmitted.Add(ctx, 1)
	return nil
}

// OnJobStarted implements ext.JobStarted.
func (m *MetricsExtension) OnJobStarted(ctx context.Context, _ id.JobID, _ uint64) error {
	m.jobStarted.Add(ctx, 1)
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(ctx context.Context, _ id.JobID, elapsed time.Duration, jobErr error) error {
	m.jobCompleted.Add(ctx, 1)
	if jobErr != nil {
		m.jobFailed.Add(ctx, 1)
	}
	m.jobDuration.Record(ctx, elapsed.Seconds())
	return nil
}

// OnJobRestarted implements ext.JobRestarted.
func (m *MetricsExtension) OnJobRestarted(ctx context.Context, _ id.JobID) error {
	m.jobRestarted.Add(ctx, 1)
	return nil
}

// OnJobExtracted implements ext.JobExtracted.
func (m *MetricsExtension) OnJobExtracted(ctx context.Context, _ id.JobID) error {
	m.jobExtracted.Add(ctx, 1)
	return nil
}

// ── Task lifecycle hooks ────────────────────────────

// OnTaskExecuted implements ext.TaskExecuted.
func (m *MetricsExtension) OnTaskExecuted(ctx context.Context, _ id.JobID, _ time.Duration, taskErr error) error {
	m.taskExecuted.Add(ctx, 1)
	if taskErr != nil {
		m.taskFailed.Add(ctx, 1)
	}
	return nil
}

// ── Other lifecycle hooks ───────────────────────────

// OnCronFired implements ext.CronFired.
func (m *MetricsExtension) OnCronFired(ctx context.Context, _ string, _ id.JobID) error {
	m.cronFired.Add(ctx, 1)
	return nil
}
