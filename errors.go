package conveyor

import "errors"

var (
	// Registration errors.
	ErrDuplicateJob = errors.New("conveyor: job handle already registered")
	ErrJobNotFound  = errors.New("conveyor: job not found")

	// State errors.
	ErrJobActive = errors.New("conveyor: job activation still in progress")
	ErrNilTask   = errors.New("conveyor: nil task")
	ErrNilJob    = errors.New("conveyor: nil job")

	// Lifecycle errors.
	ErrShuttingDown = errors.New("conveyor: engine is shutting down")
)
