// Package observability exposes the scheduler's Prometheus metrics,
// including the diagnostic error counter incremented by the work loop.
//
// Every Collector method is safe to call on a nil receiver and does
// nothing there, so call sites stay identical whether diagnostics are
// enabled or not.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes retune-scheduler Prometheus metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	ErrorsTotal     prometheus.Counter
	RequestsTotal   *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
	TimersArmed     prometheus.Gauge
	RetuneDurations prometheus.Histogram
}

// NewCollector registers the scheduler metrics against the provided
// registerer. A nil registerer uses the default registry.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	errs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retune_errors_total",
		Help: "Cumulative count of retune failures and queue anomalies detected by the work loop.",
	})
	errs, err := registerCounter(reg, errs, "retune_errors_total")
	if err != nil {
		return nil, err
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retune_requests_total",
		Help: "Host retune requests by dispatch path and outcome.",
	}, []string{"path", "outcome"})
	if err := reg.Register(requests); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			requests = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "retune_queue_depth",
		Help: "Number of retune requests currently queued.",
	})
	depth, err = registerGauge(reg, depth, "retune_queue_depth")
	if err != nil {
		return nil, err
	}

	armed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "retune_timers_armed",
		Help: "Number of deferred retunes currently armed in the timer service.",
	})
	armed, err = registerGauge(reg, armed, "retune_timers_armed")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "retune_duration_ticks",
		Help:    "Measured immediate retune durations in hardware timestamp ticks.",
		Buckets: prometheus.ExponentialBuckets(16, 2, 12),
	})
	durations, err = registerHistogram(reg, durations, "retune_duration_ticks")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		ErrorsTotal:     errs,
		RequestsTotal:   requests,
		QueueDepth:      depth,
		TimersArmed:     armed,
		RetuneDurations: durations,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// IncError increments the diagnostic error counter.
func (c *Collector) IncError() {
	if c == nil || c.ErrorsTotal == nil {
		return
	}
	c.ErrorsTotal.Inc()
}

// IncRequest counts one host request by dispatch path and outcome code.
func (c *Collector) IncRequest(path, outcome string) {
	if c == nil || c.RequestsTotal == nil {
		return
	}
	c.RequestsTotal.WithLabelValues(path, outcome).Inc()
}

// SetQueueDepth updates the queue depth gauge.
func (c *Collector) SetQueueDepth(n int) {
	if c == nil || c.QueueDepth == nil {
		return
	}
	c.QueueDepth.Set(float64(n))
}

// SetTimersArmed updates the armed timer gauge.
func (c *Collector) SetTimersArmed(n int) {
	if c == nil || c.TimersArmed == nil {
		return
	}
	c.TimersArmed.Set(float64(n))
}

// ObserveRetuneDuration records a measured immediate retune duration.
func (c *Collector) ObserveRetuneDuration(ticks uint64) {
	if c == nil || c.RetuneDurations == nil {
		return
	}
	c.RetuneDurations.Observe(float64(ticks))
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
