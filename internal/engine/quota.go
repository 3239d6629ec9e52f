package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/ofxhost/internal/status"
)

// PendingQuota tracks the number of unfinished render jobs per effect and
// enforces a maximum backlog.
//
// A job holds its slot from Submit until it finishes, whether it rendered,
// failed or was drained at shutdown. Without a limit (maxPending <= 0)
// the quota only counts.
//
// A bounded backlog keeps a slow or stalled effect from accumulating an
// unbounded queue while other effects keep rendering.
type PendingQuota struct {
	mu         sync.Mutex
	maxPending int
	pending    map[string]int
}

// NewPendingQuota creates a quota with the given per-effect limit.
func NewPendingQuota(maxPending int) *PendingQuota {
	return &PendingQuota{
		maxPending: maxPending,
		pending:    make(map[string]int),
	}
}

// Acquire reserves a slot for effect. Returns BacklogExceededError when the
// effect already has MaxPending unfinished jobs.
func (q *PendingQuota) Acquire(effect string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.pending[effect]
	if q.maxPending > 0 && n >= q.maxPending {
		return &BacklogExceededError{Effect: effect, Pending: n, Limit: q.maxPending}
	}
	q.pending[effect] = n + 1
	return nil
}

// Release frees a slot taken by Acquire.
func (q *PendingQuota) Release(effect string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch n := q.pending[effect]; {
	case n > 1:
		q.pending[effect] = n - 1
	case n == 1:
		delete(q.pending, effect)
	}
}

// Pending returns the number of unfinished jobs of effect.
func (q *PendingQuota) Pending(effect string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending[effect]
}

// MaxPending returns the per-effect limit; 0 means unlimited.
func (q *PendingQuota) MaxPending() int {
	return q.maxPending
}

// BacklogExceededError is returned by Submit when an effect's backlog is
// full. It matches status.ErrBusy.
type BacklogExceededError struct {
	Effect  string // instance ID
	Pending int    // unfinished jobs at the time of the rejected Submit
	Limit   int
}

// Error implements the error interface.
func (e *BacklogExceededError) Error() string {
	return fmt.Sprintf("effect %s has %d pending renders (limit %d)",
		e.Effect, e.Pending, e.Limit)
}

// Unwrap exposes the Busy status so callers can match on the code.
func (e *BacklogExceededError) Unwrap() error {
	return status.New(status.CodeBusy, e.Effect, "render backlog is full")
}

// IsBacklogExceeded reports whether err is a BacklogExceededError.
// Uses errors.As to handle wrapped errors.
func IsBacklogExceeded(err error) bool {
	var be *BacklogExceededError
	return errors.As(err, &be)
}
