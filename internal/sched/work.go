package sched

import "errors"

var (
	// ErrNegativeSteps is returned by Submit for a negative step count.
	ErrNegativeSteps = errors.New("sched: step count must not be negative")
	// ErrInvalidPriority is returned for a priority outside the defined levels.
	ErrInvalidPriority = errors.New("sched: invalid priority")
)

// WorkID uniquely identifies a Work item within one Scheduler. IDs grow in
// submission order.
type WorkID uint64

// StepFunc is the externally visible effect of one atomic step. It is called
// after remaining has been decremented.
type StepFunc func(w *Work)

// Work is one schedulable unit of repeated computation.
type Work struct {
	id        WorkID
	priority  Priority // fixed for the lifetime of the item
	remaining int      // atomic steps left; only the scheduler decrements it
	effect    StepFunc
}

// newWork creates a work item. Validation happens in Submit.
func newWork(id WorkID, priority Priority, steps int, effect StepFunc) *Work {
	return &Work{
		id:        id,
		priority:  priority,
		remaining: steps,
		effect:    effect,
	}
}

func (w *Work) ID() WorkID { return w.id }

func (w *Work) Priority() Priority { return w.priority }

// Remaining returns the number of steps still to run.
func (w *Work) Remaining() int { return w.remaining }

// Done reports whether every step has run.
func (w *Work) Done() bool { return w.remaining == 0 }

// step performs exactly one atomic step.
func (w *Work) step() {
	w.remaining--
	if w.effect != nil {
		w.effect(w)
	}
}
