package job

import (
	"sync"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/id"
)

// Entry pairs a registered job with its tracker for the lifetime of the
// registration.
type Entry struct {
	Job     conveyor.Job
	Tracker *Tracker
}

// Registry maps job handles to registered entries and enforces
// at-most-one live registration per handle. It is safe for concurrent
// use.
type Registry struct {
	mu   sync.RWMutex
	jobs map[id.JobID]*Entry
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[id.JobID]*Entry),
	}
}

// Register inserts the entry under the given handle. If the handle is
// already registered the insertion is rejected with
// conveyor.ErrDuplicateJob, registry state is unchanged and the caller
// keeps ownership of the job.
func (r *Registry) Register(jobID id.JobID, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[jobID]; exists {
		return conveyor.ErrDuplicateJob
	}
	r.jobs[jobID] = e
	return nil
}

// Lookup returns the entry for the given handle.
func (r *Registry) Lookup(jobID id.JobID) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.jobs[jobID]
	return e, ok
}

// Tracker returns the tracker for the given handle. It satisfies the
// worker pool's resolver interface.
func (r *Registry) Tracker(jobID id.JobID) (*Tracker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.jobs[jobID]
	if !ok {
		return nil, false
	}
	return e.Tracker, true
}

// Extract atomically removes the registration and returns ownership of
// the job to the caller. Returns conveyor.ErrJobNotFound for unknown
// handles and conveyor.ErrJobActive if the job's current activation has
// not reached done — extraction of a still-running job is never
// permitted.
func (r *Registry) Extract(jobID id.JobID) (conveyor.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[jobID]
	if !ok {
		return nil, conveyor.ErrJobNotFound
	}
	if !e.Tracker.Done() {
		return nil, conveyor.ErrJobActive
	}

	delete(r.jobs, jobID)
	return e.Job, nil
}

// Len reports the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
