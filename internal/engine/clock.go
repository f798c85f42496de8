package engine

import "sync/atomic"

// Sequencer hands out journal sequence numbers.
// Implemented by Clock and by testutil.DeterministicClock.
type Sequencer interface {
	Next() int64
	Current() int64
}

// Clock is the logical clock that stamps journaled calls.
//
// Sequence numbers only move forward and never come from wall time, so a
// journal replays in exactly the order it was written.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock positioned at start, typically the store's
// LastSeq so a reopened journal continues where it stopped.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
