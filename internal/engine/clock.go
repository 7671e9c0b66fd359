package engine

import "sync/atomic"

// Clock is the monotonic logical clock that stamps reducer call log entries.
//
// Log ordering uses seq, never wall-clock time: two reducers committed in the
// same microsecond still have a strict order, and a host clock stepping
// backwards cannot reorder the log.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// The engine only advances it while holding its mutex.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to resume from the last logged seq after reopening a database.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Observe moves the clock forward to seq if seq is ahead of it.
// The engine calls it with each committed seq, so the clock also catches up
// with calls committed by other processes.
func (c *Clock) Observe(seq int64) {
	for {
		cur := c.seq.Load()
		if seq <= cur || c.seq.CompareAndSwap(cur, seq) {
			return
		}
	}
}
