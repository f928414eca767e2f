// internal/sched/tickclock.go

package sched

import (
	"sync/atomic"
)

// TickClock counts virtual milliseconds. Only the dispatch loop advances it;
// any goroutine may read it.
type TickClock struct {
	count atomic.Int64
}

func NewTickClock() *TickClock {
	return &TickClock{}
}

// Advance moves the clock one tick forward and returns the new count.
func (c *TickClock) Advance() int64 {
	return c.count.Add(1)
}

// Count returns the current tick count atomically.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}
