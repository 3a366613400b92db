package sched

import "log/slog"

// Option configures a Scheduler.
type Option func(s *Scheduler)

// WithLogger sets the logger used for scheduling decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSink sets the receiver of status events.
func WithSink(sink EventSink) Option {
	return func(s *Scheduler) {
		s.sink = sink
	}
}
