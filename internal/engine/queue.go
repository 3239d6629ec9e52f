package engine

import "sync"

// jobQueue is a thread-safe FIFO of render jobs.
//
// The queue is unbounded so Submit never blocks the caller. It uses a
// channel for signaling to enable context-aware waiting in the loops that
// drain it.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []*Job
	closed bool
	signal chan struct{} // Signals job availability (buffered, size 1)
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		jobs:   make([]*Job, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a job to the back of the queue.
// Returns false if the queue is closed.
func (q *jobQueue) Enqueue(j *Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.push(j)
}

// EnqueueStamped assigns j.Seq from c and enqueues j in one step, so queue
// order and seq order agree across concurrent submitters.
func (q *jobQueue) EnqueueStamped(j *Job, c *Clock) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	c.Stamp(j)
	return q.push(j)
}

// push appends j. q.mu must be held.
func (q *jobQueue) push(j *Job) bool {
	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, j)

	// Non-blocking; a buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front job without blocking.
func (q *jobQueue) TryDequeue() (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return nil, false
	}
	j := q.jobs[0]
	q.jobs[0] = nil // release for GC
	if len(q.jobs) == 1 {
		q.jobs = q.jobs[:0]
	} else {
		q.jobs = q.jobs[1:]
	}
	return j, true
}

// Wait returns a channel that signals when jobs may be available. The
// channel is closed once the queue is closed.
func (q *jobQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Drained reports whether the queue is closed and empty.
func (q *jobQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.jobs) == 0
}

// Close stops further enqueues and wakes waiters. Jobs already queued can
// still be dequeued.
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
