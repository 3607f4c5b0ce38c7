// Package queue implements the conveyor's shared task queue: a bounded,
// thread-safe FIFO of pending task envelopes consumed by the worker
// pool.
//
// Many producers (job drivers pushing from their Produce step, or
// callers submitting tasks directly) and many consumers (workers)
// operate concurrently. Ordering is FIFO across all producers combined;
// there is no per-job ordering guarantee beyond relative arrival order.
//
// With a nonzero capacity, Push blocks while the queue is full — this
// is the conveyor's backpressure mechanism. Pop blocks while the queue
// is empty. Close wakes everyone, hands the pending backlog back to the
// caller, and turns further operations into errors.
package queue
