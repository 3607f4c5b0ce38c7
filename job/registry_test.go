package job

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/id"
)

type stubJob struct{ name string }

func (stubJob) Produce(context.Context, conveyor.TaskSink) error { return nil }
func (stubJob) OnComplete(context.Context) error                 { return nil }

func newEntry(jobID id.JobID) *Entry {
	return &Entry{Job: stubJob{}, Tracker: NewTracker(jobID)}
}

func markDone(tr *Tracker) {
	tr.MarkProducing()
	tr.MarkAllSubmitted()
	tr.WaitIdle()
	tr.MarkDone(nil)
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	jobID := id.NewJobID()

	if err := r.Register(jobID, newEntry(jobID)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 registered job, got %d", r.Len())
	}

	if _, ok := r.Lookup(jobID); !ok {
		t.Error("lookup of registered handle failed")
	}
	if _, ok := r.Tracker(jobID); !ok {
		t.Error("tracker lookup of registered handle failed")
	}
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	r := NewRegistry()
	jobID := id.NewJobID()

	original := newEntry(jobID)
	if err := r.Register(jobID, original); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := r.Register(jobID, newEntry(jobID))
	if !errors.Is(err, conveyor.ErrDuplicateJob) {
		t.Fatalf("expected ErrDuplicateJob, got %v", err)
	}

	// Registry contents unchanged: the original entry survives.
	if r.Len() != 1 {
		t.Errorf("expected 1 registered job, got %d", r.Len())
	}
	got, _ := r.Lookup(jobID)
	if got != original {
		t.Error("duplicate registration must not replace the original entry")
	}
}

func TestRegistry_UnknownHandle(t *testing.T) {
	r := NewRegistry()
	unknown := id.NewJobID()

	if _, ok := r.Lookup(unknown); ok {
		t.Error("lookup of unknown handle should fail")
	}
	if _, ok := r.Tracker(unknown); ok {
		t.Error("tracker lookup of unknown handle should fail")
	}
	if _, err := r.Extract(unknown); !errors.Is(err, conveyor.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Extraction
// ---------------------------------------------------------------------------

func TestRegistry_Extract(t *testing.T) {
	r := NewRegistry()
	jobID := id.NewJobID()
	e := newEntry(jobID)
	if err := r.Register(jobID, e); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Still running: extraction rejected with a state error.
	if _, err := r.Extract(jobID); !errors.Is(err, conveyor.ErrJobActive) {
		t.Fatalf("expected ErrJobActive, got %v", err)
	}

	markDone(e.Tracker)

	j, err := r.Extract(jobID)
	if err != nil {
		t.Fatalf("extract after done: %v", err)
	}
	if j != e.Job {
		t.Error("extract should return the registered job")
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}

	// Second extraction of the same handle: not found.
	if _, err := r.Extract(jobID); !errors.Is(err, conveyor.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}
