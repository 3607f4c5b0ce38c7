// Package observability provides a ready-made metrics extension for the
// conveyor. Register it with the engine to track job submissions,
// activations, completions, restarts, task executions and failures
// without writing any instrumentation code.
//
//	eng, err := engine.New(
//	    engine.WithExtension(observability.NewMetricsExtension()),
//	)
package observability
