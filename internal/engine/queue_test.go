package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob(seq int64) *Job {
	return &Job{Seq: seq, done: make(chan struct{})}
}

func TestJobQueue_FIFO(t *testing.T) {
	q := newJobQueue()

	for i := int64(1); i <= 3; i++ {
		require.True(t, q.Enqueue(newTestJob(i)))
	}

	for i := int64(1); i <= 3; i++ {
		j, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, i, j.Seq)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "empty queue")
}

func TestJobQueue_WaitSignals(t *testing.T) {
	q := newJobQueue()

	select {
	case <-q.Wait():
		t.Fatal("empty queue should not signal")
	default:
	}

	q.Enqueue(newTestJob(1))

	select {
	case <-q.Wait():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("enqueue did not signal")
	}
}

func TestJobQueue_Close(t *testing.T) {
	q := newJobQueue()
	q.Enqueue(newTestJob(1))
	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Enqueue(newTestJob(2)), "enqueue after close should return false")
	assert.False(t, q.Drained(), "queued job survives close")

	// Close unblocks waiters.
	select {
	case <-q.Wait():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("wait did not unblock after close")
	}

	_, ok := q.TryDequeue()
	require.True(t, ok)
	assert.True(t, q.Drained())
}

func TestJobQueue_EnqueueStamped(t *testing.T) {
	q := newJobQueue()
	c := ResumeClock(10)

	j := newTestJob(0)
	require.True(t, q.EnqueueStamped(j, c))
	assert.Equal(t, int64(11), j.Seq)

	q.Close()
	assert.False(t, q.EnqueueStamped(newTestJob(0), c))
	assert.Equal(t, int64(11), c.Last(), "closed queue must not consume a seq")
}

func TestJobQueue_Len(t *testing.T) {
	q := newJobQueue()
	assert.Equal(t, 0, q.Len())

	q.Enqueue(newTestJob(1))
	q.Enqueue(newTestJob(2))
	assert.Equal(t, 2, q.Len())

	q.TryDequeue()
	assert.Equal(t, 1, q.Len())
}

func TestJobQueue_StampedOrderMatchesQueueOrder(t *testing.T) {
	q := newJobQueue()
	c := NewClock()
	const goroutines = 20
	const perGoroutine = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < perGoroutine; k++ {
				q.EnqueueStamped(newTestJob(0), c)
			}
		}()
	}
	wg.Wait()

	var last int64
	for {
		j, ok := q.TryDequeue()
		if !ok {
			break
		}
		assert.Greater(t, j.Seq, last)
		last = j.Seq
	}
	assert.Equal(t, int64(goroutines*perGoroutine), last)
}
