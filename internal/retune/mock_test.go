package retune

import (
	"github.com/radio-control/retune/internal/radio"
)

// mockSynth is a scriptable Synthesizer for scheduler tests.
type mockSynth struct {
	tuneFunc func(m radio.Module, f *radio.FrequencyDescriptor) error
	bandFunc func(m radio.Module, lowBand bool) error

	// timestamps returned by successive ReadTimestamp calls.
	timestamps []uint64
	tsIdx      int

	tuneCalls []radio.Module
	tuneFreqs []radio.FrequencyDescriptor
	bandCalls []bool
}

func (s *mockSynth) Tune(m radio.Module, f *radio.FrequencyDescriptor) error {
	s.tuneCalls = append(s.tuneCalls, m)
	s.tuneFreqs = append(s.tuneFreqs, *f)
	if s.tuneFunc != nil {
		return s.tuneFunc(m, f)
	}
	f.VCOCapResult = 0x2A
	return nil
}

func (s *mockSynth) SelectBand(m radio.Module, lowBand bool) error {
	s.bandCalls = append(s.bandCalls, lowBand)
	if s.bandFunc != nil {
		return s.bandFunc(m, lowBand)
	}
	return nil
}

func (s *mockSynth) ReadTimestamp(m radio.Module) uint64 {
	if s.tsIdx < len(s.timestamps) {
		ts := s.timestamps[s.tsIdx]
		s.tsIdx++
		return ts
	}
	return 0
}

// timerCall records one Schedule invocation.
type timerCall struct {
	module radio.Module
	entry  *Entry
	target uint64
}

// mockTimer records schedule requests without ever firing them.
type mockTimer struct {
	calls []timerCall
}

func (t *mockTimer) Schedule(m radio.Module, e *Entry, target uint64) {
	t.calls = append(t.calls, timerCall{module: m, entry: e, target: target})
}
