package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/id"
)

type noopTask struct{}

func (noopTask) Process(context.Context) error { return nil }

func item() Item {
	return Item{JobID: id.NewJobID(), Task: noopTask{}}
}

// ---------------------------------------------------------------------------
// FIFO basics
// ---------------------------------------------------------------------------

func TestPushPop_FIFO(t *testing.T) {
	q := New(0)

	first := item()
	second := item()
	if err := q.Push(first); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := q.Push(second); err != nil {
		t.Fatalf("push: %v", err)
	}

	got, ok := q.Pop()
	if !ok {
		t.Fatal("expected item, got shutdown")
	}
	if got.JobID != first.JobID {
		t.Errorf("expected FIFO order: got %s, want %s", got.JobID, first.JobID)
	}

	got, ok = q.Pop()
	if !ok {
		t.Fatal("expected item, got shutdown")
	}
	if got.JobID != second.JobID {
		t.Errorf("expected FIFO order: got %s, want %s", got.JobID, second.JobID)
	}

	if q.Len() != 0 {
		t.Errorf("expected empty queue, len=%d", q.Len())
	}
}

func TestPop_BlocksUntilPush(t *testing.T) {
	q := New(0)
	want := item()

	popped := make(chan Item, 1)
	go func() {
		it, ok := q.Pop()
		if ok {
			popped <- it
		}
	}()

	// Give the popper time to block.
	time.Sleep(20 * time.Millisecond)

	if err := q.Push(want); err != nil {
		t.Fatalf("push: %v", err)
	}

	select {
	case got := <-popped:
		if got.JobID != want.JobID {
			t.Errorf("got %s, want %s", got.JobID, want.JobID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pop did not wake after push")
	}
}

// ---------------------------------------------------------------------------
// Capacity and backpressure
// ---------------------------------------------------------------------------

func TestPush_BlocksAtCapacity(t *testing.T) {
	q := New(2)

	if err := q.Push(item()); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := q.Push(item()); err != nil {
		t.Fatalf("push: %v", err)
	}

	pushed := make(chan struct{})
	go func() {
		if err := q.Push(item()); err == nil {
			close(pushed)
		}
	}()

	select {
	case <-pushed:
		t.Fatal("push beyond capacity should block")
	case <-time.After(50 * time.Millisecond):
	}

	// Free a slot; the blocked push must complete.
	if _, ok := q.Pop(); !ok {
		t.Fatal("unexpected shutdown")
	}

	select {
	case <-pushed:
	case <-time.After(2 * time.Second):
		t.Fatal("blocked push did not wake after pop")
	}

	if q.Len() != 2 {
		t.Errorf("expected len 2, got %d", q.Len())
	}
}

func TestCapacity_NeverExceeded(t *testing.T) {
	const capacity = 4
	q := New(capacity)

	var stop atomic.Bool
	var wg sync.WaitGroup

	// Producers hammer the queue...
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				if err := q.Push(item()); err != nil {
					return
				}
			}
		}()
	}

	// ...while a consumer drains it slowly and the observer checks the bound.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			if _, ok := q.Pop(); !ok {
				return
			}
		}
	}()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if n := q.Len(); n > capacity {
			t.Errorf("queue length %d exceeds capacity %d", n, capacity)
			break
		}
	}

	stop.Store(true)
	q.Close()
	wg.Wait()
}

// ---------------------------------------------------------------------------
// Close semantics
// ---------------------------------------------------------------------------

func TestClose_ReturnsPendingItems(t *testing.T) {
	q := New(0)
	for range 3 {
		if err := q.Push(item()); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	discarded := q.Close()
	if len(discarded) != 3 {
		t.Fatalf("expected 3 discarded items, got %d", len(discarded))
	}
	if q.Len() != 0 {
		t.Errorf("expected cleared queue, len=%d", q.Len())
	}

	// Idempotent: second close hands back nothing.
	if again := q.Close(); again != nil {
		t.Errorf("second close returned %d items", len(again))
	}
}

func TestClose_WakesBlockedPoppers(t *testing.T) {
	q := New(0)

	const poppers = 4
	done := make(chan bool, poppers)
	for range poppers {
		go func() {
			_, ok := q.Pop()
			done <- ok
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.Close()

	for range poppers {
		select {
		case ok := <-done:
			if ok {
				t.Error("popper woken by close should observe shutdown")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("popper not woken by close")
		}
	}
}

func TestClose_WakesBlockedPushers(t *testing.T) {
	q := New(1)
	if err := q.Push(item()); err != nil {
		t.Fatalf("push: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Push(item())
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, conveyor.ErrShuttingDown) {
			t.Errorf("expected ErrShuttingDown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pusher not woken by close")
	}
}

func TestPush_AfterClose(t *testing.T) {
	q := New(0)
	q.Close()

	if err := q.Push(item()); !errors.Is(err, conveyor.ErrShuttingDown) {
		t.Errorf("expected ErrShuttingDown, got %v", err)
	}
	if _, ok := q.Pop(); ok {
		t.Error("pop after close should report shutdown")
	}
}
