// internal/sched/scheduler.go

package sched

import (
	"fmt"
	"log/slog"

	"preemptq/internal/logging"
)

// State is the scheduler's view of what is running.
type State struct {
	// PreviousPriority is the level that made progress in the last slice,
	// or Idle when nothing is active.
	PreviousPriority Priority
	// ActiveHandle is the registration the scheduler last made, or NoHandle.
	ActiveHandle Handle

	activeWork *Work // the item bound to ActiveHandle
}

// Scheduler is a priority-preemptive scheduler on top of a TimeSlicer.
//
// It is not safe for concurrent use: Submit and every computation it
// registers must run on the goroutine that drives the TimeSlicer.
type Scheduler struct {
	slicer TimeSlicer
	queue  *WorkQueue
	state  State
	nextID WorkID

	sink   EventSink
	logger *slog.Logger
}

// New creates a new Scheduler that registers its work with slicer.
func New(slicer TimeSlicer, opts ...Option) *Scheduler {
	s := &Scheduler{
		slicer: slicer,
		queue:  NewWorkQueue(),
		state:  State{PreviousPriority: Idle, ActiveHandle: NoHandle},
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the scheduler state.
func (s *Scheduler) State() State { return s.state }

// Pending returns the number of unfinished work items.
func (s *Scheduler) Pending() int { return s.queue.Len() }

// Submit creates a Work item with the given priority and step count, makes it
// eligible for execution and re-evaluates the schedule. A zero step count
// yields an already finished item that is never queued.
func (s *Scheduler) Submit(priority Priority, steps int, effect StepFunc) (*Work, error) {
	if !priority.Valid() {
		return nil, fmt.Errorf("submit: %w: %d", ErrInvalidPriority, int(priority))
	}
	if steps < 0 {
		return nil, fmt.Errorf("submit %d steps: %w", steps, ErrNegativeSteps)
	}

	s.nextID++
	w := newWork(s.nextID, priority, steps, effect)
	if w.Done() {
		s.emit(StatusFinish, w)
		return w, nil
	}

	s.queue.Insert(w)
	s.emit(StatusEnqueue, w)
	s.schedule()
	return w, nil
}

// Schedule re-evaluates which work should hold the slicer.
func (s *Scheduler) Schedule() { s.schedule() }

func (s *Scheduler) schedule() {
	existing, hasExisting := s.slicer.CurrentHandle()

	candidate, ok := s.queue.SelectHighestPriority()
	if !ok {
		if hasExisting {
			s.slicer.CancelComputation(existing)
		}
		wasActive := s.state.ActiveHandle != NoHandle
		if wasActive && s.state.ActiveHandle != existing {
			s.slicer.CancelComputation(s.state.ActiveHandle)
		}
		s.state = State{PreviousPriority: Idle, ActiveHandle: NoHandle}
		if wasActive {
			s.logger.Debug("scheduler idle")
			s.emitEvent(StatusEvent{Kind: StatusIdle, Priority: Idle})
		}
		return
	}

	// The registration already running at this level keeps going, and so does
	// one already bound to the candidate. A finished active item cannot be
	// resumed, so it never counts as running.
	if s.activeRunning() &&
		(candidate.priority == s.state.PreviousPriority || candidate == s.state.activeWork) {
		return
	}

	if hasExisting {
		s.slicer.CancelComputation(existing)
	}
	if s.state.ActiveHandle != NoHandle && s.state.ActiveHandle != existing {
		s.slicer.CancelComputation(s.state.ActiveHandle)
	}
	if prev := s.state.activeWork; prev != nil && prev != candidate && !prev.Done() {
		s.logger.Debug("preempt work",
			"work", prev.id, "priority", prev.priority,
			"by", candidate.id, "by_priority", candidate.priority,
			"remaining", prev.remaining)
		s.emit(StatusPreempt, prev)
	}

	h := s.slicer.ScheduleComputation(candidate.priority, &performer{s: s, work: candidate})
	s.state.ActiveHandle = h
	s.state.activeWork = candidate
	s.logger.Debug("dispatch work",
		"work", candidate.id, "priority", candidate.priority,
		"handle", uint64(h), "remaining", candidate.remaining)
	s.emit(StatusDispatch, candidate)
}

func (s *Scheduler) activeRunning() bool {
	w := s.state.activeWork
	return s.state.ActiveHandle != NoHandle && w != nil && !w.Done()
}

// perform drains steps from w until it finishes, the slice budget is spent,
// or another registration takes over.
func (s *Scheduler) perform(w *Work, expired bool) Result {
	mustRunSynchronously := w.priority == Immediate || expired

	ran := 0
	for (mustRunSynchronously || !s.slicer.ShouldYield()) && w.remaining > 0 {
		w.step()
		ran++
	}
	s.emitEvent(StatusEvent{
		Kind:      StatusSlice,
		WorkID:    w.id,
		Priority:  w.priority,
		Remaining: w.remaining,
		RanSteps:  ran,
	})

	s.state.PreviousPriority = w.priority
	if w.remaining == 0 {
		s.queue.RemoveCompleted(w)
		s.state.PreviousPriority = Idle
		s.emit(StatusFinish, w)
	}

	handleBefore := s.state.ActiveHandle
	s.schedule()
	handleAfter := s.state.ActiveHandle

	if handleAfter != NoHandle && handleBefore == handleAfter {
		s.emit(StatusYield, w)
		return Suspended(&performer{s: s, work: w})
	}
	return Done()
}

// performer binds perform to one Work item.
type performer struct {
	s    *Scheduler
	work *Work
}

func (p *performer) Resume(expired bool) Result {
	return p.s.perform(p.work, expired)
}

func (s *Scheduler) emit(kind StatusKind, w *Work) {
	s.emitEvent(StatusEvent{
		Kind:      kind,
		WorkID:    w.id,
		Priority:  w.priority,
		Remaining: w.remaining,
	})
}

func (s *Scheduler) emitEvent(ev StatusEvent) {
	if s.sink != nil {
		s.sink.Observe(ev)
	}
}
