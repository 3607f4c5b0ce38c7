package queue

import (
	"sync"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/id"
)

// Item is a task envelope: the task plus the handle of the job that
// owns it. The owning job's outstanding counter is incremented before
// the item enters the queue and decremented when a worker finishes it.
type Item struct {
	JobID id.JobID
	Task  conveyor.Task
}

// Queue is a bounded FIFO of task envelopes. It is safe for concurrent
// use by any number of producers and consumers.
//
// All waits are condition-style blocking waits, never busy loops. A
// blocked Push or Pop holds no lock while suspended.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	items    []Item
	capacity int
	closed   bool
}

// New creates a queue. capacity bounds the number of pending items;
// zero means unbounded.
func New(capacity int) *Queue {
	q := &Queue{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Push appends an item, blocking while the queue is at capacity until a
// consumer frees a slot. Returns conveyor.ErrShuttingDown if the queue
// is closed before the item is accepted.
func (q *Queue) Push(it Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.capacity > 0 && len(q.items) >= q.capacity && !q.closed {
		q.notFull.Wait()
	}

	if q.closed {
		return conveyor.ErrShuttingDown
	}

	q.items = append(q.items, it)
	q.notEmpty.Signal()
	return nil
}

// Pop removes and returns the oldest item, blocking while the queue is
// empty. The second return value is false once the queue is closed and
// drained of the close notification; consumers must then exit.
//
// Items pending at the moment of Close are never handed to consumers —
// Close clears them.
func (q *Queue) Pop() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.notEmpty.Wait()
	}

	if q.closed {
		return Item{}, false
	}

	it := q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return it, true
}

// Close marks the queue closed, clears the pending backlog and returns
// it so the caller can settle the owning jobs' counters. Every blocked
// producer and consumer is woken. Close is idempotent; subsequent calls
// return nil.
func (q *Queue) Close() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true

	discarded := q.items
	q.items = nil

	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
	return discarded
}

// Len reports the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap reports the configured capacity; zero means unbounded.
func (q *Queue) Cap() int { return q.capacity }
