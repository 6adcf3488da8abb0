// Package timer implements the timer-completion service for deferred
// retunes.
//
// The hardware's timestamp counter has no interrupt surface from user
// space, so the service polls it: once an armed entry's target timestamp
// has elapsed, the entry is flipped from Scheduled to Ready. That state
// flip is the only write this package ever performs on shared data, and it
// goes through the entry's atomic compare-and-swap.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/radio-control/retune/internal/adapter"
	"github.com/radio-control/retune/internal/logging"
	"github.com/radio-control/retune/internal/observability"
	"github.com/radio-control/retune/internal/radio"
	"github.com/radio-control/retune/internal/retune"
)

// arm is one pending completion signal.
type arm struct {
	module radio.Module
	entry  *retune.Entry
	seq    uint32
	target uint64
}

// Service arms completion signals and fires them from its polling loop.
type Service struct {
	synth    adapter.Synthesizer
	metrics  *observability.Collector
	log      logging.Logger
	interval time.Duration

	mu   sync.Mutex
	arms []arm
}

// New creates a timer service polling the hardware counter at the given
// interval.
func New(synth adapter.Synthesizer, metrics *observability.Collector, interval time.Duration, log logging.Logger) *Service {
	if log == nil {
		log = logging.Noop()
	}
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &Service{
		synth:    synth,
		metrics:  metrics,
		log:      log,
		interval: interval,
	}
}

// Schedule arms a completion signal for the entry at its target timestamp.
// It never blocks; the work loop calls it mid-tick. There is no cancel:
// once armed, a signal fires or is discarded when its slot is recycled.
func (s *Service) Schedule(m radio.Module, e *retune.Entry, target uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.arms = append(s.arms, arm{
		module: m,
		entry:  e,
		seq:    e.Seq(),
		target: target,
	})
	s.metrics.SetTimersArmed(len(s.arms))
}

// Armed reports the number of pending completion signals.
func (s *Service) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.arms)
}

// Run polls the hardware counters until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.poll()
		}
	}
}

// poll fires every armed signal whose target has elapsed.
func (s *Service) poll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.arms[:0]
	for _, a := range s.arms {
		now := s.synth.ReadTimestamp(a.module)
		if now < a.target {
			kept = append(kept, a)
			continue
		}

		// The slot may have been recycled since arming; the sequence
		// guard keeps a stale signal from readying someone else's entry.
		if a.entry.Seq() == a.seq && a.entry.MarkReady() {
			s.log.Debug("retune ready",
				logging.String("module", a.module.String()),
				logging.Uint64("target", a.target))
		}
	}
	s.arms = kept
	s.metrics.SetTimersArmed(len(s.arms))
}

// Compile-time assertion that Service satisfies the scheduler's port.
var _ retune.Timer = (*Service)(nil)
