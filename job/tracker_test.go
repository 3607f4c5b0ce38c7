package job

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/id"
)

// ---------------------------------------------------------------------------
// State machine
// ---------------------------------------------------------------------------

func TestTracker_StateProgression(t *testing.T) {
	tr := NewTracker(id.NewJobID())

	if tr.State() != StatePending {
		t.Fatalf("expected pending, got %s", tr.State())
	}

	tr.MarkProducing()
	if tr.State() != StateProducing {
		t.Fatalf("expected producing, got %s", tr.State())
	}

	tr.MarkAllSubmitted()
	if tr.State() != StateAwaitingTasks {
		t.Fatalf("expected awaiting_tasks, got %s", tr.State())
	}

	tr.WaitIdle() // counter already zero
	if tr.State() != StateCompleting {
		t.Fatalf("expected completing, got %s", tr.State())
	}

	tr.MarkDone(nil)
	if tr.State() != StateDone {
		t.Fatalf("expected done, got %s", tr.State())
	}
	if !tr.Done() {
		t.Error("Done() should report true")
	}
}

func TestTracker_OneShotSignals(t *testing.T) {
	tr := NewTracker(id.NewJobID())

	tr.MarkAllSubmitted()
	tr.MarkAllSubmitted() // must not panic on double fire

	select {
	case <-tr.SubmittedChan():
	default:
		t.Fatal("submitted channel not closed")
	}

	tr.MarkDone(nil)
	tr.MarkDone(errors.New("late")) // must not panic or overwrite

	select {
	case <-tr.DoneChan():
	default:
		t.Fatal("done channel not closed")
	}
	if tr.Err() != nil {
		t.Errorf("late MarkDone error should be dropped, got %v", tr.Err())
	}
}

// ---------------------------------------------------------------------------
// Outstanding counter
// ---------------------------------------------------------------------------

func TestTracker_WaitIdle_BlocksUntilZero(t *testing.T) {
	tr := NewTracker(id.NewJobID())

	const tasks = 100
	for range tasks {
		tr.IncTask()
	}

	idle := make(chan struct{})
	go func() {
		tr.WaitIdle()
		close(idle)
	}()

	// Drain all but one from several goroutines.
	var wg sync.WaitGroup
	for range tasks - 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.TaskDone(nil)
		}()
	}
	wg.Wait()

	select {
	case <-idle:
		t.Fatal("WaitIdle returned with one task outstanding")
	case <-time.After(50 * time.Millisecond):
	}

	tr.TaskDone(nil)

	select {
	case <-idle:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitIdle did not wake on final decrement")
	}
	if tr.Outstanding() != 0 {
		t.Errorf("expected 0 outstanding, got %d", tr.Outstanding())
	}
}

func TestTracker_TaskDone_NegativePanics(t *testing.T) {
	tr := NewTracker(id.NewJobID())

	defer func() {
		if recover() == nil {
			t.Error("expected panic on negative outstanding count")
		}
	}()
	tr.TaskDone(nil)
}

func TestTracker_RecordError_FirstWins(t *testing.T) {
	tr := NewTracker(id.NewJobID())
	first := errors.New("first")

	tr.IncTask()
	tr.IncTask()
	tr.TaskDone(first)
	tr.TaskDone(errors.New("second"))

	if !errors.Is(tr.Err(), first) {
		t.Errorf("expected first error to stick, got %v", tr.Err())
	}
}

// ---------------------------------------------------------------------------
// Restart
// ---------------------------------------------------------------------------

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(id.NewJobID())

	// Not done yet: reset must be rejected.
	if err := tr.Reset(); !errors.Is(err, conveyor.ErrJobActive) {
		t.Fatalf("expected ErrJobActive, got %v", err)
	}

	tr.MarkProducing()
	tr.MarkAllSubmitted()
	tr.WaitIdle()
	tr.MarkDone(errors.New("task fault"))

	oldDone := tr.DoneChan()

	if err := tr.Reset(); err != nil {
		t.Fatalf("reset after done: %v", err)
	}

	if tr.State() != StatePending {
		t.Errorf("expected pending after reset, got %s", tr.State())
	}
	if tr.Generation() != 1 {
		t.Errorf("expected generation 1, got %d", tr.Generation())
	}
	if tr.Err() != nil {
		t.Errorf("expected cleared error, got %v", tr.Err())
	}
	if tr.Outstanding() != 0 {
		t.Errorf("expected zero counter, got %d", tr.Outstanding())
	}

	// The new activation's channels are fresh; a wait issued now must
	// not observe the prior activation's done signal.
	if tr.DoneChan() == oldDone {
		t.Error("reset should replace the done channel")
	}
	select {
	case <-tr.DoneChan():
		t.Error("new done channel should be open")
	default:
	}
}

func TestTracker_Abort(t *testing.T) {
	tr := NewTracker(id.NewJobID())
	tr.Abort()

	if !tr.Aborted() {
		t.Error("expected aborted")
	}
	if !errors.Is(tr.Err(), conveyor.ErrShuttingDown) {
		t.Errorf("expected ErrShuttingDown recorded, got %v", tr.Err())
	}
}
