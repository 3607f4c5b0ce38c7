package conveyor

import (
	"runtime"
	"time"
)

// Config holds configuration for an engine.
type Config struct {
	// Workers is the number of worker goroutines executing tasks.
	// Zero means automatic: available parallelism minus one, minimum 1.
	Workers int

	// QueueCapacity bounds the shared task queue. A push beyond the
	// capacity blocks until a worker frees a slot. Zero means unbounded.
	QueueCapacity int

	// ShutdownTimeout is the maximum time Shutdown waits for workers
	// and drivers before giving up on a graceful stop.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         0,
		QueueCapacity:   0,
		ShutdownTimeout: 30 * time.Second,
	}
}

// EffectiveWorkers resolves the configured worker count: zero expands
// to runtime.NumCPU()-1, and the result is never below 1.
func (c Config) EffectiveWorkers() int {
	n := c.Workers
	if n == 0 {
		n = runtime.NumCPU() - 1
	}
	if n < 1 {
		n = 1
	}
	return n
}
