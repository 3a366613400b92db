// internal/sched/schedulerEvent.go

package sched

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusEnqueue
	StatusDispatch
	StatusPreempt
	StatusSlice
	StatusYield
	StatusFinish
)

// StatusEvent is emitted on every scheduling decision and after every slice.
// It carries no timestamp; sinks stamp events themselves.
type StatusEvent struct {
	Kind      StatusKind
	WorkID    WorkID
	Priority  Priority
	Remaining int
	RanSteps  int // steps run in the slice, only set on StatusSlice
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusEnqueue:
		return "Enqueued"
	case StatusDispatch:
		return "Dispatch"
	case StatusPreempt:
		return "Preempt"
	case StatusSlice:
		return "Slice"
	case StatusYield:
		return "Yield"
	case StatusFinish:
		return "Finish"
	default:
		return "Unknown"
	}
}

// EventSink receives status events synchronously on the scheduling goroutine.
type EventSink interface {
	Observe(ev StatusEvent)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ev StatusEvent)

func (f EventSinkFunc) Observe(ev StatusEvent) { f(ev) }

type multiSink []EventSink

func (m multiSink) Observe(ev StatusEvent) {
	for _, s := range m {
		s.Observe(ev)
	}
}

// MultiSink fans events out to every non-nil sink in order.
func MultiSink(sinks ...EventSink) EventSink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
