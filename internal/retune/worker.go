package retune

import (
	"github.com/radio-control/retune/internal/adapter"
	"github.com/radio-control/retune/internal/logging"
	"github.com/radio-control/retune/internal/observability"
	"github.com/radio-control/retune/internal/telemetry"
)

// Worker advances deferred retunes through their lifecycle. One Tick
// inspects only the queue head and performs at most one state advance, so
// every invocation completes in a bounded number of steps.
type Worker struct {
	queue   *Queue
	synth   adapter.Synthesizer
	timer   Timer
	hub     *telemetry.Hub
	metrics *observability.Collector
	log     logging.Logger
}

// NewWorker creates a work loop over the given queue and collaborators.
// hub and metrics may be nil.
func NewWorker(q *Queue, synth adapter.Synthesizer, timer Timer, hub *telemetry.Hub, metrics *observability.Collector, log logging.Logger) *Worker {
	if log == nil {
		log = logging.Noop()
	}
	return &Worker{
		queue:   q,
		synth:   synth,
		timer:   timer,
		hub:     hub,
		metrics: metrics,
		log:     log,
	}
}

// Tick performs one pass of the work loop.
func (w *Worker) Tick() {
	e := w.queue.Peek()
	if e == nil {
		return
	}

	switch e.State() {
	case EntryNew:
		// Mark Scheduled before arming the timer: a target that has
		// already elapsed may be signalled Ready on the very next poll,
		// and the completion CAS requires the Scheduled state.
		e.setState(EntryScheduled)
		if w.timer != nil {
			w.timer.Schedule(e.Module, e, e.Target)
		}
		w.log.Debug("retune scheduled",
			logging.String("module", e.Module.String()),
			logging.Uint64("target", e.Target))

	case EntryScheduled:
		// Awaiting the timer completion signal.

	case EntryReady:
		w.perform(e)
		w.queue.Dequeue(nil)

	default:
		// A head entry in any other state is corrupt. Count it and drop
		// it; leaving it in place would wedge the queue behind a slot
		// nothing will ever advance.
		w.metrics.IncError()
		w.log.Error("dropping retune entry in unexpected state",
			logging.String("state", e.State().String()),
			logging.String("module", e.Module.String()))
		w.queue.Dequeue(nil)
	}
}

// perform executes the retune for a Ready head entry. Failures are
// non-fatal: there is no synchronous caller to report to, so they are
// counted and logged only.
func (w *Worker) perform(e *Entry) {
	if err := w.synth.Tune(e.Module, &e.Freq); err != nil {
		w.metrics.IncError()
		w.log.Warn("deferred retune failed",
			logging.String("module", e.Module.String()),
			logging.Err(adapter.NormalizeVendorError(err, nil)))
		w.publishFault(e, OutcomeTuneFailed)
		return
	}

	if err := w.synth.SelectBand(e.Module, e.Freq.LowBand()); err != nil {
		w.metrics.IncError()
		w.log.Warn("band select after deferred retune failed",
			logging.String("module", e.Module.String()),
			logging.Err(adapter.NormalizeVendorError(err, nil)))
		w.publishFault(e, OutcomeBandFailed)
		return
	}

	w.hub.Publish(telemetry.Event{
		Type: telemetry.EventRetuneComplete,
		Data: map[string]any{
			"module":       e.Module.String(),
			"target":       e.Target,
			"vcocapResult": e.Freq.VCOCapResult,
		},
	})
}

func (w *Worker) publishFault(e *Entry, code string) {
	w.hub.Publish(telemetry.Event{
		Type: telemetry.EventRetuneFault,
		Data: map[string]any{
			"module": e.Module.String(),
			"target": e.Target,
			"code":   code,
		},
	})
}
