// Package metrics exposes scheduler activity as Prometheus metrics.
//
// The collector is an event sink: it is fed by the scheduler's status events
// and never touches scheduler state.
//
//	preemptq_work_submitted_total{priority}  work items queued
//	preemptq_work_steps_total{priority}      atomic steps executed
//	preemptq_work_completed_total{priority}  work items finished
//	preemptq_slices_total{priority}          execution slices
//	preemptq_preemptions_total               registrations cancelled for more urgent work
//	preemptq_yields_total                    slices that ended with a continuation
//	preemptq_work_pending                    work items queued but not finished
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"preemptq/internal/sched"
)

// Collector Prometheus metrics collector
type Collector struct {
	submitted   *prometheus.CounterVec
	steps       *prometheus.CounterVec
	completed   *prometheus.CounterVec
	slices      *prometheus.CounterVec
	preemptions prometheus.Counter
	yields      prometheus.Counter
	pending     prometheus.Gauge

	queued map[sched.WorkID]struct{} // only touched from the scheduling goroutine
}

// NewCollector creates the metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preemptq_work_submitted_total",
			Help: "Total number of work items queued",
		}, []string{"priority"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preemptq_work_steps_total",
			Help: "Total number of atomic steps executed",
		}, []string{"priority"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preemptq_work_completed_total",
			Help: "Total number of work items finished",
		}, []string{"priority"}),
		slices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preemptq_slices_total",
			Help: "Total number of execution slices",
		}, []string{"priority"}),
		preemptions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "preemptq_preemptions_total",
			Help: "Total number of registrations cancelled for more urgent work",
		}),
		yields: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "preemptq_yields_total",
			Help: "Total number of slices that ended with a continuation",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "preemptq_work_pending",
			Help: "Current number of unfinished work items",
		}),
		queued: make(map[sched.WorkID]struct{}),
	}

	reg.MustRegister(
		c.submitted,
		c.steps,
		c.completed,
		c.slices,
		c.preemptions,
		c.yields,
		c.pending,
	)
	return c
}

// Observe updates the metrics for one scheduler event.
func (c *Collector) Observe(ev sched.StatusEvent) {
	p := ev.Priority.String()
	switch ev.Kind {
	case sched.StatusEnqueue:
		c.submitted.WithLabelValues(p).Inc()
		c.queued[ev.WorkID] = struct{}{}
		c.pending.Inc()
	case sched.StatusSlice:
		c.slices.WithLabelValues(p).Inc()
		c.steps.WithLabelValues(p).Add(float64(ev.RanSteps))
	case sched.StatusFinish:
		c.completed.WithLabelValues(p).Inc()
		// zero-step work finishes without ever being queued
		if _, ok := c.queued[ev.WorkID]; ok {
			delete(c.queued, ev.WorkID)
			c.pending.Dec()
		}
	case sched.StatusPreempt:
		c.preemptions.Inc()
	case sched.StatusYield:
		c.yields.Inc()
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
