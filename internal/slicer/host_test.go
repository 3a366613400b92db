package slicer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"preemptq/internal/sched"
)

func TestHost_RunsPostedWorkUntilIdle(t *testing.T) {
	s, clock := newTestSlicer()
	host := NewHost(s, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// touched only on the host goroutine
	var log []string
	posted := 0
	host.OnIdle(func() {
		if posted == 2 {
			cancel()
		}
	})

	errCh := make(chan error, 1)
	go func() { errCh <- host.Run(ctx) }()

	for _, name := range []string{"a", "b"} {
		name := name
		require.NoError(t, host.Post(func() {
			s.ScheduleComputation(sched.Normal, &countdown{s: s, clock: clock, n: 10, name: name, log: &log})
			posted++
		}))
	}

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("host did not stop")
	}

	assert.Len(t, log, 20)
	assert.Equal(t, 0, s.Pending())
	assert.ErrorIs(t, host.Post(func() {}), ErrHostClosed)
}

func TestHost_CloseStopsRun(t *testing.T) {
	s, _ := newTestSlicer()
	host := NewHost(s, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- host.Run(context.Background()) }()

	host.Close()
	host.Close()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("host did not stop")
	}
	assert.ErrorIs(t, host.Post(func() {}), ErrHostClosed)
}

func TestHost_PostFromHostGoroutineDoesNotBlock(t *testing.T) {
	s, _ := newTestSlicer()
	host := NewHost(s, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// touched only on the host goroutine
	ran := 0
	host.OnIdle(func() {
		if ran == 1000 {
			cancel()
		}
	})
	require.NoError(t, host.Post(func() {
		for i := 0; i < 1000; i++ {
			require.NoError(t, host.Post(func() { ran++ }))
		}
	}))

	err := host.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1000, ran)
}
