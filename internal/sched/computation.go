package sched

// Handle identifies a computation registered with a TimeSlicer.
type Handle uint64

// NoHandle means nothing is registered.
const NoHandle Handle = 0

// Computation is a resumable unit of execution. expired is true when the
// registration's deadline passed before it got a turn.
type Computation interface {
	Resume(expired bool) Result
}

// Result is what a Computation returns after one slice: either Done or
// Suspended with the computation that picks up where this one stopped.
type Result struct {
	next Computation
}

// Done reports that the computation has nothing left to do.
func Done() Result { return Result{} }

// Suspended reports that next must be resumed on a later slice.
func Suspended(next Computation) Result { return Result{next: next} }

// Continuation returns the computation to resume, if any.
func (r Result) Continuation() (Computation, bool) {
	return r.next, r.next != nil
}

// TimeSlicer multiplexes computations onto the host loop and measures their
// time budget. The scheduler never reads a clock itself.
type TimeSlicer interface {
	// ScheduleComputation registers c at priority p.
	ScheduleComputation(p Priority, c Computation) Handle
	// CancelComputation is a no-op for handles that already ran or were cancelled.
	CancelComputation(h Handle)
	// ShouldYield reports whether the current slice's budget is spent.
	ShouldYield() bool
	// CurrentHandle returns the first live registration, if any.
	CurrentHandle() (Handle, bool)
}
