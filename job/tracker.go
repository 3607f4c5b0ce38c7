package job

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/id"
)

// State represents the lifecycle state of a job activation.
type State string

const (
	// StatePending means the activation has not started producing yet.
	StatePending State = "pending"
	// StateProducing means the driver is running the job's Produce step.
	StateProducing State = "producing"
	// StateAwaitingTasks means production finished and the activation is
	// waiting for its outstanding tasks to drain.
	StateAwaitingTasks State = "awaiting_tasks"
	// StateCompleting means the completion hook is running.
	StateCompleting State = "completing"
	// StateDone means the activation finished and waiters were woken.
	StateDone State = "done"
)

// Tracker carries the completion-tracking state for one registered job.
// It is safe for concurrent use by the driver, the engine and every
// worker executing the job's tasks.
//
// The outstanding counter is atomic and updated without holding any
// queue lock; the mutex below exists only to park and wake waiters and
// to guard the one-shot signals.
type Tracker struct {
	jobID id.JobID

	outstanding atomic.Int64

	mu   sync.Mutex
	idle *sync.Cond // broadcast on every zero-crossing of outstanding

	state      State
	generation uint64
	aborted    bool
	err        error // first recorded fault of the activation

	submitted       chan struct{}
	done            chan struct{}
	submittedClosed bool
	doneClosed      bool
}

// NewTracker creates a tracker for the given handle, in StatePending.
func NewTracker(jobID id.JobID) *Tracker {
	t := &Tracker{
		jobID:     jobID,
		state:     StatePending,
		submitted: make(chan struct{}),
		done:      make(chan struct{}),
	}
	t.idle = sync.NewCond(&t.mu)
	return t
}

// JobID returns the handle this tracker accounts for.
func (t *Tracker) JobID() id.JobID { return t.jobID }

// State returns the current activation state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Generation returns the activation generation, starting at 0 and
// incremented by every Reset.
func (t *Tracker) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}

// Done reports whether the current activation has finished.
func (t *Tracker) Done() bool {
	return t.State() == StateDone
}

// Outstanding returns the number of tasks created but not yet finished.
func (t *Tracker) Outstanding() int64 {
	return t.outstanding.Load()
}

// Err returns the first fault recorded during the current activation:
// a task error, a panic converted to an error, a Produce error, or
// conveyor.ErrShuttingDown for activations aborted by shutdown.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// RecordError records err as the activation's fault unless one was
// already recorded. A nil err is ignored.
func (t *Tracker) RecordError(err error) {
	if err == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
	}
}

// MarkProducing transitions pending → producing at driver start.
func (t *Tracker) MarkProducing() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateProducing
}

// IncTask accounts for one newly created task. Called before the task
// enters the queue so the count can never under-run the backlog.
func (t *Tracker) IncTask() {
	t.outstanding.Add(1)
}

// TaskDone accounts for one finished task, recording err as the
// activation's fault if it is the first. On the counter's zero-crossing
// every thread parked in WaitIdle is woken.
func (t *Tracker) TaskDone(err error) {
	t.RecordError(err)

	n := t.outstanding.Add(-1)
	if n < 0 {
		panic(fmt.Sprintf("job: outstanding count for %s went negative", t.jobID))
	}
	if n == 0 {
		t.mu.Lock()
		t.idle.Broadcast()
		t.mu.Unlock()
	}
}

// MarkAllSubmitted fires the one-shot "all tasks submitted" signal and
// transitions producing → awaiting_tasks. Subsequent calls within the
// same activation are no-ops.
func (t *Tracker) MarkAllSubmitted() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.submittedClosed {
		return
	}
	t.submittedClosed = true
	t.state = StateAwaitingTasks
	close(t.submitted)
}

// SubmittedChan returns a channel closed when the current activation's
// "all tasks submitted" signal fires.
func (t *Tracker) SubmittedChan() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.submitted
}

// WaitIdle blocks until the outstanding counter reaches zero, then
// transitions into completing. It is woken on every zero-crossing, not
// by polling.
func (t *Tracker) WaitIdle() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for t.outstanding.Load() != 0 {
		t.idle.Wait()
	}
	t.state = StateCompleting
}

// MarkDone records err (if any), fires the one-shot "done" signal and
// wakes every waiter blocked on DoneChan. Subsequent calls within the
// same activation are no-ops.
func (t *Tracker) MarkDone(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.doneClosed {
		return
	}
	if err != nil && t.err == nil {
		t.err = err
	}
	t.doneClosed = true
	t.state = StateDone
	close(t.done)
}

// DoneChan returns a channel closed when the current activation
// finishes. A caller that fetches the channel after a Reset observes
// the new activation, not the prior one.
func (t *Tracker) DoneChan() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Abort marks the activation as aborted by shutdown. The driver still
// runs the activation to done so waiters are released, but skips the
// completion hook.
func (t *Tracker) Abort() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aborted = true
	if t.err == nil {
		t.err = conveyor.ErrShuttingDown
	}
}

// Aborted reports whether the activation was aborted by shutdown.
func (t *Tracker) Aborted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aborted
}

// Reset re-arms the tracker for a new activation: both one-shot signals
// cleared, counter at zero, fault cleared, generation incremented.
// Only legal once the prior activation is done; otherwise
// conveyor.ErrJobActive is returned and nothing changes.
func (t *Tracker) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateDone {
		return conveyor.ErrJobActive
	}

	t.state = StatePending
	t.generation++
	t.aborted = false
	t.err = nil
	t.submitted = make(chan struct{})
	t.done = make(chan struct{})
	t.submittedClosed = false
	t.doneClosed = false
	t.outstanding.Store(0)
	return nil
}
