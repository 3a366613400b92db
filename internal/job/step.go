package job

import (
	"fmt"
	"io"
	"time"

	"preemptq/internal/sched"
	"preemptq/internal/slicer"
)

// Step is one observed step of a work item.
type Step struct {
	WorkID    sched.WorkID
	Priority  sched.Priority
	Remaining int
}

// Print writes the priority glyph of every step to w.
func Print(w io.Writer) sched.StepFunc {
	return func(work *sched.Work) {
		fmt.Fprint(w, work.Priority().Glyph())
	}
}

// Spin returns a step that busy-waits for d, so a step costs real time
// against the slice budget.
func Spin(clock slicer.Clock, d time.Duration) sched.StepFunc {
	return func(*sched.Work) {
		start := clock.Now()
		for clock.Now().Sub(start) < d {
		}
	}
}

// Advance returns a step that moves a TickClock forward by d.
func Advance(clock *slicer.TickClock, d time.Duration) sched.StepFunc {
	return func(*sched.Work) {
		clock.Advance(d)
	}
}

// Record appends every step to out.
func Record(out *[]Step) sched.StepFunc {
	return func(work *sched.Work) {
		*out = append(*out, Step{
			WorkID:    work.ID(),
			Priority:  work.Priority(),
			Remaining: work.Remaining(),
		})
	}
}

// Chain runs the given steps in order, skipping nil ones.
func Chain(steps ...sched.StepFunc) sched.StepFunc {
	return func(work *sched.Work) {
		for _, fn := range steps {
			if fn != nil {
				fn(work)
			}
		}
	}
}
