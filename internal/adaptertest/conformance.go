// Package adaptertest provides a vendor-agnostic conformance suite for
// Synthesizer implementations. Any frontend driver, fake or real, must
// pass it before the scheduler will trust it.
package adaptertest

import (
	"testing"

	"github.com/radio-control/retune/internal/adapter"
	"github.com/radio-control/retune/internal/radio"
)

// RunConformance runs the Synthesizer contract checks against a fresh
// instance from newSynth per subtest.
func RunConformance(t *testing.T, newSynth func() adapter.Synthesizer) {
	t.Helper()

	t.Run("TuneWritesResultCapacitance", func(t *testing.T) {
		s := newSynth()
		f := radio.FrequencyDescriptor{
			NInt:         42,
			NFrac:        123456,
			FreqSel:      0x27,
			VCOCap:       0x10,
			VCOCapResult: radio.VCOCapUnknown,
		}
		if err := s.Tune(radio.ModuleRX, &f); err != nil {
			t.Fatalf("Tune failed: %v", err)
		}
		if f.VCOCapResult == radio.VCOCapUnknown {
			t.Error("Tune left VCOCapResult at the unknown sentinel")
		}
	})

	t.Run("QuickTuneHonorsRequestedCapacitance", func(t *testing.T) {
		s := newSynth()
		f := radio.FrequencyDescriptor{
			VCOCap:       0x15,
			VCOCapResult: radio.VCOCapUnknown,
			Flags:        radio.FlagForceVCOCap,
		}
		if err := s.Tune(radio.ModuleTX, &f); err != nil {
			t.Fatalf("Tune failed: %v", err)
		}
		if f.VCOCapResult != f.VCOCap {
			t.Errorf("quick tune result = 0x%02x, want requested 0x%02x", f.VCOCapResult, f.VCOCap)
		}
	})

	t.Run("SelectBandBothPaths", func(t *testing.T) {
		s := newSynth()
		for _, lowBand := range []bool{true, false} {
			if err := s.SelectBand(radio.ModuleRX, lowBand); err != nil {
				t.Errorf("SelectBand(lowBand=%v) failed: %v", lowBand, err)
			}
		}
	})

	t.Run("TimestampMonotonic", func(t *testing.T) {
		s := newSynth()
		for _, m := range []radio.Module{radio.ModuleRX, radio.ModuleTX} {
			prev := s.ReadTimestamp(m)
			for i := 0; i < 10; i++ {
				now := s.ReadTimestamp(m)
				if now < prev {
					t.Fatalf("module %v timestamp went backwards: %d -> %d", m, prev, now)
				}
				prev = now
			}
		}
	})
}
