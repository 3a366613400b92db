// internal/slicer/slicer.go

package slicer

import (
	"log/slog"
	"time"

	"github.com/emirpasic/gods/trees/binaryheap"

	"preemptq/internal/logging"
	"preemptq/internal/sched"
)

const (
	// DefaultBudget is the wall-clock budget of one slice.
	DefaultBudget = 5 * time.Millisecond

	// maxSigned31BitInt milliseconds, the timeout of idle registrations.
	idleTimeout = 1073741823 * time.Millisecond
)

// DefaultTimeouts maps each priority to how long a registration may wait
// before it is considered expired. Expired registrations run without
// yielding.
func DefaultTimeouts() map[sched.Priority]time.Duration {
	return map[sched.Priority]time.Duration{
		sched.Immediate:    -time.Millisecond,
		sched.UserBlocking: 250 * time.Millisecond,
		sched.Normal:       5 * time.Second,
		sched.Low:          10 * time.Second,
		sched.Idle:         idleTimeout,
	}
}

type regState int

const (
	statePending regState = iota
	stateRunning
	stateFinished
	stateCancelled
)

// registration is one computation registered with the slicer.
type registration struct {
	handle    sched.Handle
	priority  sched.Priority
	comp      sched.Computation
	expiresAt time.Time
	state     regState
}

func (r *registration) live() bool {
	return r.state == statePending || r.state == stateRunning
}

// Slicer runs registered computations in time-bounded slices, most urgent
// deadline first. It implements sched.TimeSlicer.
//
// Cancelled and finished registrations stay in the heap until they reach the
// top, where they are dropped.
//
// A Slicer is not safe for concurrent use; drive it from a Host or from a
// single goroutine.
type Slicer struct {
	clock    Clock
	budget   time.Duration
	timeouts map[sched.Priority]time.Duration

	heap       *binaryheap.Heap
	live       map[sched.Handle]*registration
	nextHandle sched.Handle
	sliceStart time.Time

	logger *slog.Logger
}

// Option configures a Slicer.
type Option func(s *Slicer)

// WithBudget sets the slice budget. Non-positive values are ignored.
func WithBudget(d time.Duration) Option {
	return func(s *Slicer) {
		if d > 0 {
			s.budget = d
		}
	}
}

// WithTimeout overrides the expiration timeout of one priority level.
func WithTimeout(p sched.Priority, d time.Duration) Option {
	return func(s *Slicer) {
		s.timeouts[p] = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Slicer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Slicer reading time from clock.
func New(clock Clock, opts ...Option) *Slicer {
	if clock == nil {
		clock = SystemClock{}
	}
	s := &Slicer{
		clock:    clock,
		budget:   DefaultBudget,
		timeouts: DefaultTimeouts(),
		heap:     binaryheap.NewWith(byDeadline),
		live:     make(map[sched.Handle]*registration),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Budget returns the slice budget.
func (s *Slicer) Budget() time.Duration { return s.budget }

// ScheduleComputation registers c to run at priority p.
func (s *Slicer) ScheduleComputation(p sched.Priority, c sched.Computation) sched.Handle {
	s.nextHandle++
	r := &registration{
		handle:    s.nextHandle,
		priority:  p,
		comp:      c,
		expiresAt: s.clock.Now().Add(s.timeouts[p]),
	}
	s.heap.Push(r)
	s.live[r.handle] = r
	return r.handle
}

// CancelComputation drops the registration behind h. Unknown, finished and
// already cancelled handles are ignored.
func (s *Slicer) CancelComputation(h sched.Handle) {
	r, ok := s.live[h]
	if !ok {
		return
	}
	r.state = stateCancelled
	r.comp = nil
	delete(s.live, h)
	s.logger.Debug("computation cancelled", "handle", uint64(h), "priority", r.priority)
}

// ShouldYield reports whether the current slice has used up its budget.
func (s *Slicer) ShouldYield() bool {
	return s.clock.Now().Sub(s.sliceStart) >= s.budget
}

// CurrentHandle returns the handle of the first live registration.
func (s *Slicer) CurrentHandle() (sched.Handle, bool) {
	r := s.peekLive()
	if r == nil {
		return sched.NoHandle, false
	}
	return r.handle, true
}

// Pending returns the number of live registrations.
func (s *Slicer) Pending() int { return len(s.live) }

// HasPending reports whether any registration is still live.
func (s *Slicer) HasPending() bool { return len(s.live) > 0 }

// RunSlice starts a new slice and runs computations until the budget is spent
// or nothing is live. Expired registrations run even when the budget is
// spent. It reports whether live registrations remain.
func (s *Slicer) RunSlice() bool {
	s.sliceStart = s.clock.Now()
	for {
		r := s.peekLive()
		if r == nil {
			return false
		}

		now := s.clock.Now()
		expired := !r.expiresAt.After(now)
		if !expired && s.ShouldYield() {
			return true
		}

		comp := r.comp
		r.comp = nil
		r.state = stateRunning
		res := comp.Resume(expired)

		if next, ok := res.Continuation(); ok && r.state == stateRunning {
			r.comp = next
			r.state = statePending
			continue
		}
		if r.state == stateRunning {
			r.state = stateFinished
			delete(s.live, r.handle)
		}
	}
}

// Flush runs slices until no registration is live.
func (s *Slicer) Flush() {
	for s.RunSlice() {
	}
}

// peekLive drops dead registrations from the top of the heap and returns the
// first live one.
func (s *Slicer) peekLive() *registration {
	for {
		v, ok := s.heap.Peek()
		if !ok {
			return nil
		}
		r := v.(*registration)
		if r.live() {
			return r
		}
		s.heap.Pop()
	}
}

// byDeadline orders registrations by expiration time, then registration order.
func byDeadline(a, b any) int {
	ra, rb := a.(*registration), b.(*registration)
	switch {
	case ra.expiresAt.Before(rb.expiresAt):
		return -1
	case ra.expiresAt.After(rb.expiresAt):
		return 1
	case ra.handle < rb.handle:
		return -1
	case ra.handle > rb.handle:
		return 1
	default:
		return 0
	}
}
