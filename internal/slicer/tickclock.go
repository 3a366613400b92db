// internal/slicer/tickclock.go

package slicer

import (
	"sync/atomic"
	"time"
)

// Clock is the only time source of the slicer.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// TickClock is a manual clock that only moves when ticked. It counts ticks
// atomically, so it can be advanced from a step effect and read elsewhere.
type TickClock struct {
	epoch time.Time
	tick  time.Duration
	count atomic.Int64
}

// NewTickClock creates a clock at epoch where every tick is one interval long.
func NewTickClock(epoch time.Time, interval time.Duration) *TickClock {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &TickClock{epoch: epoch, tick: interval}
}

// Tick advances the clock by one interval.
func (c *TickClock) Tick() { c.count.Add(1) }

// Advance moves the clock forward by at least d, rounded up to whole ticks.
func (c *TickClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	n := int64((d + c.tick - 1) / c.tick)
	c.count.Add(n)
}

// Count returns the current tick count atomically.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}

func (c *TickClock) Now() time.Time {
	return c.epoch.Add(time.Duration(c.count.Load()) * c.tick)
}
