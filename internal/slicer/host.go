package slicer

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"preemptq/internal/logging"
)

// ErrHostClosed is returned by Post once the host has stopped.
var ErrHostClosed = errors.New("slicer: host is closed")

// Host owns the goroutine that drives a Slicer. Callbacks posted from other
// goroutines run on that goroutine between slices, so they may touch the
// Slicer and anything scheduled on it without locking.
type Host struct {
	slicer *Slicer
	onIdle func()

	ingressMu sync.Mutex
	ingress   []func()
	wake      chan struct{} // capacity 1, coalesces wake-ups

	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once

	logger *slog.Logger
}

// NewHost creates a host for s. A nil logger discards output.
func NewHost(s *Slicer, logger *slog.Logger) *Host {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Host{
		slicer: s,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// OnIdle sets a callback invoked on the host goroutine every time the loop
// runs out of work. Must be called before Run.
func (h *Host) OnIdle(fn func()) { h.onIdle = fn }

// Post queues fn to run on the host goroutine. It never blocks, so it is
// safe to call from the host goroutine itself.
func (h *Host) Post(fn func()) error {
	h.ingressMu.Lock()
	if h.closed.Load() {
		h.ingressMu.Unlock()
		return ErrHostClosed
	}
	h.ingress = append(h.ingress, fn)
	h.ingressMu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close stops the host. Callbacks still queued are dropped.
func (h *Host) Close() {
	h.closeOnce.Do(func() {
		h.ingressMu.Lock()
		h.closed.Store(true)
		h.ingress = nil
		h.ingressMu.Unlock()
		close(h.done)
	})
}

// Run drives the slicer until ctx is done or Close is called. Posted
// callbacks are drained before every slice, and the host yields the processor
// after every slice so that goroutines posting work get to run.
func (h *Host) Run(ctx context.Context) error {
	defer h.Close()

	for {
		if err := ctx.Err(); err != nil {
			h.logger.Debug("host stopped", "reason", err)
			return err
		}
		if h.closed.Load() {
			return nil
		}
		h.drain()

		if h.slicer.HasPending() {
			h.slicer.RunSlice()
			runtime.Gosched()
			continue
		}

		if h.onIdle != nil {
			h.onIdle()
		}
		select {
		case <-ctx.Done():
			h.logger.Debug("host stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-h.done:
			return nil
		case <-h.wake:
		}
	}
}

// drain runs posted callbacks until the ingress queue stays empty. Callbacks
// posted while draining run in the same pass.
func (h *Host) drain() {
	for {
		h.ingressMu.Lock()
		batch := h.ingress
		h.ingress = nil
		h.ingressMu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}
