package job

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"preemptq/internal/sched"
	"preemptq/internal/slicer"
)

func TestEffectsRunPerStep(t *testing.T) {
	clock := slicer.NewTickClock(time.Unix(0, 0), time.Millisecond)
	sl := slicer.New(clock)
	s := sched.New(sl)

	var out bytes.Buffer
	var steps []Step
	w, err := s.Submit(sched.UserBlocking, 3, Chain(
		Print(&out),
		Advance(clock, 2*time.Millisecond),
		nil,
		Record(&steps),
	))
	require.NoError(t, err)

	sl.Flush()

	assert.Equal(t, "UUU", out.String())
	assert.Equal(t, int64(6), clock.Count())
	require.Len(t, steps, 3)
	assert.Equal(t, Step{WorkID: w.ID(), Priority: sched.UserBlocking, Remaining: 0}, steps[2])
	assert.Equal(t, []int{2, 1, 0}, []int{steps[0].Remaining, steps[1].Remaining, steps[2].Remaining})
}

func TestSpinBurnsClockTime(t *testing.T) {
	clock := slicer.NewTickClock(time.Unix(0, 0), time.Millisecond)

	Spin(tickingClock{clock}, 3*time.Millisecond)(nil)
	assert.GreaterOrEqual(t, clock.Count(), int64(3))
}

// tickingClock advances on every read, so Spin terminates on a manual clock.
type tickingClock struct{ c *slicer.TickClock }

func (t tickingClock) Now() time.Time {
	now := t.c.Now()
	t.c.Tick()
	return now
}
