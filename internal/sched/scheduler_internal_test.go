package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSlicer registers computations without running them.
type fakeSlicer struct {
	next      Handle
	live      []Handle
	comps     map[Handle]Computation
	cancelled []Handle
	yield     bool
}

func newFakeSlicer() *fakeSlicer {
	return &fakeSlicer{comps: make(map[Handle]Computation)}
}

func (f *fakeSlicer) ScheduleComputation(p Priority, c Computation) Handle {
	f.next++
	f.live = append(f.live, f.next)
	f.comps[f.next] = c
	return f.next
}

func (f *fakeSlicer) CancelComputation(h Handle) {
	f.cancelled = append(f.cancelled, h)
	for i, l := range f.live {
		if l == h {
			f.live = append(f.live[:i], f.live[i+1:]...)
			return
		}
	}
}

func (f *fakeSlicer) ShouldYield() bool { return f.yield }

func (f *fakeSlicer) CurrentHandle() (Handle, bool) {
	if len(f.live) == 0 {
		return NoHandle, false
	}
	return f.live[0], true
}

func TestSchedule_EmptyQueueCancelsExisting(t *testing.T) {
	f := newFakeSlicer()
	s := New(f)

	stray := f.ScheduleComputation(Normal, nil)
	s.Schedule()

	assert.Equal(t, []Handle{stray}, f.cancelled)
	assert.Equal(t, State{PreviousPriority: Idle, ActiveHandle: NoHandle}, s.State())

	// a second call with nothing registered is a no-op
	s.Schedule()
	assert.Len(t, f.cancelled, 1)
}

func TestSchedule_HigherPriorityReplacesRegistration(t *testing.T) {
	f := newFakeSlicer()
	s := New(f)

	low, err := s.Submit(Low, 10, nil)
	require.NoError(t, err)
	first := s.State().ActiveHandle
	require.NotEqual(t, NoHandle, first)

	// the low work ran one slice
	f.yield = true
	res := f.comps[first].Resume(false)
	_, suspended := res.Continuation()
	require.True(t, suspended)
	assert.Equal(t, Low, s.State().PreviousPriority)

	_, err = s.Submit(Normal, 1, nil)
	require.NoError(t, err)

	assert.Contains(t, f.cancelled, first)
	assert.NotEqual(t, first, s.State().ActiveHandle)
	assert.Equal(t, 10, low.Remaining())
}

func TestPerform_CompletedWorkIsNotResumed(t *testing.T) {
	f := newFakeSlicer()
	s := New(f)

	w, err := s.Submit(Idle, 2, nil)
	require.NoError(t, err)
	h := s.State().ActiveHandle

	res := f.comps[h].Resume(false)
	_, suspended := res.Continuation()

	assert.False(t, suspended)
	assert.True(t, w.Done())
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, State{PreviousPriority: Idle, ActiveHandle: NoHandle}, s.State())
}
