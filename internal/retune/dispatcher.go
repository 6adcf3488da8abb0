package retune

import (
	"time"

	"github.com/radio-control/retune/internal/adapter"
	"github.com/radio-control/retune/internal/logging"
	"github.com/radio-control/retune/internal/observability"
	"github.com/radio-control/retune/internal/radio"
	"github.com/radio-control/retune/internal/telemetry"
	"github.com/radio-control/retune/internal/wire"
)

// Dispatcher is the host-request entry point. A request carrying the
// reserved "now" timestamp is executed synchronously against the hardware;
// anything else is enqueued for the work loop to run at its target
// timestamp.
type Dispatcher struct {
	queue   *Queue
	synth   adapter.Synthesizer
	hub     *telemetry.Hub
	audit   AuditLogger
	metrics *observability.Collector
	log     logging.Logger
}

// NewDispatcher creates a dispatcher. hub, audit and metrics may be nil.
func NewDispatcher(q *Queue, synth adapter.Synthesizer, hub *telemetry.Hub, metrics *observability.Collector, log logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.Noop()
	}
	return &Dispatcher{
		queue:   q,
		synth:   synth,
		hub:     hub,
		metrics: metrics,
		log:     log,
	}
}

// SetAuditLogger sets the audit logger.
func (d *Dispatcher) SetAuditLogger(audit AuditLogger) {
	d.audit = audit
}

// Handle executes one decoded retune request and produces its response.
// It never returns an error: every failure is encoded into the response's
// success flag.
func (d *Dispatcher) Handle(req wire.Request) wire.Response {
	start := time.Now()

	f := radio.FrequencyDescriptor{
		NInt:         req.NInt,
		NFrac:        req.NFrac,
		FreqSel:      req.FreqSel,
		VCOCap:       req.VCOCap,
		VCOCapResult: radio.VCOCapUnknown,
	}
	if req.LowBand {
		f.Flags = radio.FlagLowBand
	}
	if req.QuickTune {
		f.Flags |= radio.FlagForceVCOCap
	}

	var (
		resp    wire.Response
		path    string
		outcome string
	)
	if req.Immediate() {
		path = PathImmediate
		resp, outcome = d.immediate(req.Module, &f)
	} else {
		path = PathDeferred
		resp, outcome = d.deferred(req.Module, req.Timestamp, f)
	}

	d.metrics.IncRequest(path, outcome)
	d.metrics.SetQueueDepth(d.queue.Len())
	if d.audit != nil {
		d.audit.LogRetune(req.Module, path, outcome, time.Since(start))
	}
	return resp
}

// immediate runs the retune synchronously and measures its duration with
// the hardware timestamp counter.
func (d *Dispatcher) immediate(m radio.Module, f *radio.FrequencyDescriptor) (wire.Response, string) {
	resp := wire.Response{VCOCapResult: f.VCOCapResult}

	if !m.Valid() {
		d.log.Warn("immediate retune for invalid module", logging.Int("module", int(uint8(m))))
		return resp, OutcomeInvalidModule
	}

	tuneStart := d.synth.ReadTimestamp(m)

	if err := d.synth.Tune(m, f); err != nil {
		// The tuner may have written a partial result before failing.
		resp.VCOCapResult = f.VCOCapResult
		d.log.Warn("immediate retune failed",
			logging.String("module", m.String()),
			logging.Err(adapter.NormalizeVendorError(err, nil)))
		return resp, OutcomeTuneFailed
	}
	resp.VCOCapResult = f.VCOCapResult

	if err := d.synth.SelectBand(m, f.LowBand()); err != nil {
		d.log.Warn("band select after immediate retune failed",
			logging.String("module", m.String()),
			logging.Err(adapter.NormalizeVendorError(err, nil)))
		return resp, OutcomeBandFailed
	}

	tuneEnd := d.synth.ReadTimestamp(m)
	resp.Duration = tuneEnd - tuneStart
	resp.Success = true
	resp.TuneValid = true

	d.metrics.ObserveRetuneDuration(resp.Duration)
	d.hub.Publish(telemetry.Event{
		Type: telemetry.EventRetuneComplete,
		Data: map[string]any{
			"module":        m.String(),
			"durationTicks": resp.Duration,
			"vcocapResult":  f.VCOCapResult,
		},
	})
	return resp, OutcomeSuccess
}

// deferred enqueues the request for the work loop. Deferred acceptance
// reports no duration and no tune-valid flag; the actual retune happens
// later, unobserved by the original caller.
func (d *Dispatcher) deferred(m radio.Module, target uint64, f radio.FrequencyDescriptor) (wire.Response, string) {
	resp := wire.Response{VCOCapResult: f.VCOCapResult}

	size, err := d.queue.Enqueue(f, m, target)
	if err != nil {
		d.log.Warn("retune queue full",
			logging.String("module", m.String()),
			logging.Uint64("target", target))
		return resp, OutcomeQueueFull
	}

	resp.Success = true
	d.hub.Publish(telemetry.Event{
		Type: telemetry.EventRetuneScheduled,
		Data: map[string]any{
			"module":     m.String(),
			"target":     target,
			"queueDepth": size,
		},
	})
	return resp, OutcomeSuccess
}
