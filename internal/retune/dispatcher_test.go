package retune

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/radio-control/retune/internal/radio"
	"github.com/radio-control/retune/internal/wire"
)

// mockAudit records audit calls.
type mockAudit struct {
	mu      sync.Mutex
	records []auditRecord
}

type auditRecord struct {
	module  radio.Module
	path    string
	outcome string
}

func (a *mockAudit) LogRetune(m radio.Module, path string, outcome string, latency time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, auditRecord{module: m, path: path, outcome: outcome})
}

func immediateRequest(m radio.Module) wire.Request {
	return wire.Request{
		Module:    m,
		Timestamp: radio.TimestampNow,
		NInt:      42,
		NFrac:     1234567,
		FreqSel:   0x27,
		VCOCap:    0x11,
	}
}

func TestDispatcherImmediateSuccess(t *testing.T) {
	synth := &mockSynth{timestamps: []uint64{100, 150}}
	d := NewDispatcher(NewQueue(), synth, nil, nil, nil)

	resp := d.Handle(immediateRequest(radio.ModuleRX))

	if !resp.Success {
		t.Error("response success = false, want true")
	}
	if !resp.TuneValid {
		t.Error("response tune-valid = false, want true")
	}
	if resp.Duration != 50 {
		t.Errorf("response duration = %d, want 50", resp.Duration)
	}
	if resp.VCOCapResult != 0x2A {
		t.Errorf("response vcocap result = 0x%02x, want 0x2A", resp.VCOCapResult)
	}
	if len(synth.tuneCalls) != 1 || synth.tuneCalls[0] != radio.ModuleRX {
		t.Errorf("tune calls = %v, want [RX]", synth.tuneCalls)
	}
	if len(synth.bandCalls) != 1 {
		t.Errorf("band-select calls = %d, want 1", len(synth.bandCalls))
	}
}

func TestDispatcherImmediateInvalidModule(t *testing.T) {
	synth := &mockSynth{timestamps: []uint64{100, 150}}
	audit := &mockAudit{}
	d := NewDispatcher(NewQueue(), synth, nil, nil, nil)
	d.SetAuditLogger(audit)

	resp := d.Handle(immediateRequest(radio.Module(7)))

	if resp.Success {
		t.Error("response success = true, want false")
	}
	if resp.TuneValid {
		t.Error("response tune-valid = true, want false")
	}
	if resp.Duration != 0 {
		t.Errorf("response duration = %d, want 0", resp.Duration)
	}
	if resp.VCOCapResult != radio.VCOCapUnknown {
		t.Errorf("response vcocap result = 0x%02x, want unknown sentinel", resp.VCOCapResult)
	}
	if len(synth.tuneCalls) != 0 || len(synth.bandCalls) != 0 {
		t.Error("collaborators were invoked for an invalid module")
	}
	if len(audit.records) != 1 || audit.records[0].outcome != OutcomeInvalidModule {
		t.Errorf("audit records = %+v, want one INVALID_MODULE", audit.records)
	}
}

func TestDispatcherImmediateTuneFailure(t *testing.T) {
	synth := &mockSynth{
		timestamps: []uint64{100, 150},
		tuneFunc: func(m radio.Module, f *radio.FrequencyDescriptor) error {
			f.VCOCapResult = 0x05 // partial calibration before the fault
			return errors.New("PLL_NOT_LOCKED")
		},
	}
	d := NewDispatcher(NewQueue(), synth, nil, nil, nil)

	resp := d.Handle(immediateRequest(radio.ModuleTX))

	if resp.Success || resp.TuneValid {
		t.Errorf("response flags = success:%v tuneValid:%v, want false/false", resp.Success, resp.TuneValid)
	}
	if resp.Duration != 0 {
		t.Errorf("response duration = %d, want 0", resp.Duration)
	}
	if resp.VCOCapResult != 0x05 {
		t.Errorf("response vcocap result = 0x%02x, want partial 0x05", resp.VCOCapResult)
	}
	if len(synth.bandCalls) != 0 {
		t.Error("band-select invoked after tune failure")
	}
}

func TestDispatcherImmediateBandSelectFailure(t *testing.T) {
	synth := &mockSynth{
		timestamps: []uint64{100, 150},
		bandFunc: func(m radio.Module, lowBand bool) error {
			return errors.New("BAND_SWITCH_FAILED")
		},
	}
	d := NewDispatcher(NewQueue(), synth, nil, nil, nil)

	resp := d.Handle(immediateRequest(radio.ModuleRX))

	if resp.Success || resp.TuneValid {
		t.Errorf("response flags = success:%v tuneValid:%v, want false/false", resp.Success, resp.TuneValid)
	}
	if resp.Duration != 0 {
		t.Errorf("response duration = %d, want 0", resp.Duration)
	}
	// The tune itself completed, so its result is still reported.
	if resp.VCOCapResult != 0x2A {
		t.Errorf("response vcocap result = 0x%02x, want 0x2A", resp.VCOCapResult)
	}
}

func TestDispatcherDeferredAccepted(t *testing.T) {
	synth := &mockSynth{}
	q := NewQueue()
	audit := &mockAudit{}
	d := NewDispatcher(q, synth, nil, nil, nil)
	d.SetAuditLogger(audit)

	req := immediateRequest(radio.ModuleTX)
	req.Timestamp = 99999

	resp := d.Handle(req)

	if !resp.Success {
		t.Error("response success = false, want true")
	}
	if resp.TuneValid {
		t.Error("deferred response has tune-valid set")
	}
	if resp.Duration != 0 {
		t.Errorf("deferred response duration = %d, want 0", resp.Duration)
	}
	if resp.VCOCapResult != radio.VCOCapUnknown {
		t.Errorf("deferred response vcocap = 0x%02x, want unknown sentinel", resp.VCOCapResult)
	}
	if len(synth.tuneCalls) != 0 {
		t.Error("deferred dispatch invoked the tuner synchronously")
	}
	if q.Len() != 1 {
		t.Fatalf("queue length = %d, want 1", q.Len())
	}

	e := q.Peek()
	if e.State() != EntryNew {
		t.Errorf("queued entry state = %v, want %v", e.State(), EntryNew)
	}
	if e.Module != radio.ModuleTX || e.Target != 99999 {
		t.Errorf("queued entry = module:%v target:%d, want TX/99999", e.Module, e.Target)
	}
	if len(audit.records) != 1 || audit.records[0].path != PathDeferred {
		t.Errorf("audit records = %+v, want one deferred entry", audit.records)
	}
}

func TestDispatcherDeferredQueueFull(t *testing.T) {
	synth := &mockSynth{}
	q := NewQueue()
	d := NewDispatcher(q, synth, nil, nil, nil)

	req := immediateRequest(radio.ModuleRX)
	req.Timestamp = 5000

	for i := 0; i < QueueDepth; i++ {
		if resp := d.Handle(req); !resp.Success {
			t.Fatalf("enqueue %d rejected with room available", i)
		}
	}

	resp := d.Handle(req)
	if resp.Success {
		t.Error("response success = true with a full queue, want false")
	}
	if resp.Duration != 0 || resp.TuneValid {
		t.Errorf("full-queue response = %+v, want zeroed duration and flags", resp)
	}
	if q.Len() != QueueDepth {
		t.Errorf("queue length after rejected request = %d, want %d", q.Len(), QueueDepth)
	}
}

func TestDispatcherFlagThreading(t *testing.T) {
	tests := []struct {
		name      string
		lowBand   bool
		quickTune bool
		wantFlags uint8
	}{
		{"neither", false, false, 0},
		{"low band only", true, false, radio.FlagLowBand},
		{"quick tune only", false, true, radio.FlagForceVCOCap},
		{"both", true, true, radio.FlagLowBand | radio.FlagForceVCOCap},
	}

	for _, tt := range tests {
		t.Run(tt.name+" immediate", func(t *testing.T) {
			synth := &mockSynth{timestamps: []uint64{0, 1}}
			d := NewDispatcher(NewQueue(), synth, nil, nil, nil)

			req := immediateRequest(radio.ModuleRX)
			req.LowBand = tt.lowBand
			req.QuickTune = tt.quickTune
			d.Handle(req)

			if got := synth.tuneFreqs[0].Flags; got != tt.wantFlags {
				t.Errorf("descriptor flags = %#02x, want %#02x", got, tt.wantFlags)
			}
			if got := synth.bandCalls[0]; got != tt.lowBand {
				t.Errorf("band-select low-band = %v, want %v", got, tt.lowBand)
			}
		})

		t.Run(tt.name+" deferred", func(t *testing.T) {
			q := NewQueue()
			d := NewDispatcher(q, &mockSynth{}, nil, nil, nil)

			req := immediateRequest(radio.ModuleRX)
			req.Timestamp = 1234
			req.LowBand = tt.lowBand
			req.QuickTune = tt.quickTune
			d.Handle(req)

			e := q.Peek()
			if e == nil {
				t.Fatal("deferred request not queued")
			}
			if e.Freq.Flags != tt.wantFlags {
				t.Errorf("queued descriptor flags = %#02x, want %#02x", e.Freq.Flags, tt.wantFlags)
			}
			if e.Freq.LowBand() != tt.lowBand {
				t.Errorf("queued descriptor low-band = %v, want %v", e.Freq.LowBand(), tt.lowBand)
			}
		})
	}
}

func TestDispatcherDescriptorInitialization(t *testing.T) {
	synth := &mockSynth{timestamps: []uint64{0, 1}}
	d := NewDispatcher(NewQueue(), synth, nil, nil, nil)

	d.Handle(immediateRequest(radio.ModuleRX))

	f := synth.tuneFreqs[0]
	if f.NInt != 42 || f.NFrac != 1234567 || f.FreqSel != 0x27 || f.VCOCap != 0x11 {
		t.Errorf("descriptor fields not threaded from request: %+v", f)
	}
	if f.VCOCapResult != radio.VCOCapUnknown {
		t.Errorf("descriptor result capacitance = 0x%02x, want unknown sentinel", f.VCOCapResult)
	}
}
