package engine

import "sync/atomic"

// Clock stamps render jobs with a strictly increasing seq. The scheduler
// stamps under the intake lock, so seq order is queue order.
type Clock struct {
	last atomic.Int64
}

// NewClock returns a clock whose first stamp is 1.
func NewClock() *Clock {
	return &Clock{}
}

// ResumeClock returns a clock whose first stamp follows last, the highest
// seq an earlier scheduler handed out. A negative last starts at 1.
func ResumeClock(last int64) *Clock {
	c := &Clock{}
	c.Advance(last)
	return c
}

// Stamp assigns the next seq to j and returns it.
func (c *Clock) Stamp(j *Job) int64 {
	j.Seq = c.last.Add(1)
	return j.Seq
}

// Advance moves the clock so that later stamps exceed seq. It never moves
// the clock back.
func (c *Clock) Advance(seq int64) {
	for {
		cur := c.last.Load()
		if seq <= cur || c.last.CompareAndSwap(cur, seq) {
			return
		}
	}
}

// Last returns the most recent stamp, or the resume point when nothing has
// been stamped yet.
func (c *Clock) Last() int64 {
	return c.last.Load()
}
