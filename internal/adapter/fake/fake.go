// Package fake provides a scriptable Synthesizer implementation for tests
// and for running the daemon without RF hardware attached.
package fake

import (
	"fmt"
	"sync"

	"github.com/radio-control/retune/internal/adapter"
	"github.com/radio-control/retune/internal/radio"
)

// Fault injection modes.
const (
	FaultNone       = ""
	FaultTune       = "FailTune"
	FaultBandSelect = "FailBandSelect"
)

// TuneCall records one Tune invocation.
type TuneCall struct {
	Module radio.Module
	Freq   radio.FrequencyDescriptor
}

// BandSelectCall records one SelectBand invocation.
type BandSelectCall struct {
	Module  radio.Module
	LowBand bool
}

// Synthesizer implements adapter.Synthesizer with deterministic, scriptable
// behavior. The hardware timestamp is a per-module counter that advances by
// TickStep on every read, which makes measured durations predictable.
type Synthesizer struct {
	adapter.Base

	mu sync.Mutex

	// Timestamp ramp
	now      [2]uint64
	TickStep uint64

	// Tuning behavior
	AchievedVCOCap uint8
	faultMode      string

	// Call recording
	TuneCalls       []TuneCall
	BandSelectCalls []BandSelectCall
}

// New creates a fake synthesizer with a 50-tick timestamp step and an
// achieved VCOCAP of 0x20.
func New(deviceID string) *Synthesizer {
	return &Synthesizer{
		Base: adapter.Base{
			DeviceID: deviceID,
			Model:    "fake-synth",
		},
		TickStep:       50,
		AchievedVCOCap: 0x20,
	}
}

// SetFaultMode arms or clears fault injection.
func (s *Synthesizer) SetFaultMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faultMode = mode
}

// SetTimestamp pins the module's hardware counter to a known value.
func (s *Synthesizer) SetTimestamp(m radio.Module, ts uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now[m&1] = ts
}

// Tune programs the fake frontend. On success the achieved VCOCAP is
// written back into the descriptor; quick tune echoes the requested value.
func (s *Synthesizer) Tune(m radio.Module, f *radio.FrequencyDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TuneCalls = append(s.TuneCalls, TuneCall{Module: m, Freq: *f})

	if s.faultMode == FaultTune {
		return fmt.Errorf("PLL_NOT_LOCKED: nint=%d nfrac=%d", f.NInt, f.NFrac)
	}

	if f.ForceVCOCap() {
		f.VCOCapResult = f.VCOCap
	} else {
		f.VCOCapResult = s.AchievedVCOCap
	}
	return nil
}

// SelectBand routes the fake RF path.
func (s *Synthesizer) SelectBand(m radio.Module, lowBand bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.BandSelectCalls = append(s.BandSelectCalls, BandSelectCall{Module: m, LowBand: lowBand})

	if s.faultMode == FaultBandSelect {
		return fmt.Errorf("BAND_SWITCH_FAILED: low_band=%v", lowBand)
	}
	return nil
}

// ReadTimestamp returns the module counter and advances it by TickStep.
func (s *Synthesizer) ReadTimestamp(m radio.Module) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now[m&1]
	s.now[m&1] += s.TickStep
	return ts
}

// Compile-time assertion that Synthesizer implements the contract.
var _ adapter.Synthesizer = (*Synthesizer)(nil)
