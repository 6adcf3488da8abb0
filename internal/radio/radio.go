package radio

import "fmt"

// Module identifies a radio signal path. The wire protocol carries a raw
// byte, so values outside the known set are representable and must be
// rejected by callers.
type Module uint8

const (
	ModuleRX Module = 0
	ModuleTX Module = 1
)

// Valid reports whether m names a real module.
func (m Module) Valid() bool {
	return m == ModuleRX || m == ModuleTX
}

func (m Module) String() string {
	switch m {
	case ModuleRX:
		return "RX"
	case ModuleTX:
		return "TX"
	default:
		return fmt.Sprintf("Module(%d)", uint8(m))
	}
}

// TimestampNow is the reserved target-timestamp value denoting "execute
// immediately" rather than scheduling against the hardware counter.
const TimestampNow uint64 = 0

// VCOCapUnknown marks a result capacitance that no tuning attempt has
// written yet.
const VCOCapUnknown uint8 = 0xFF

// FrequencyDescriptor flag bits.
const (
	// FlagLowBand selects the low-band RF path after tuning.
	FlagLowBand uint8 = 1 << 0
	// FlagForceVCOCap forces the caller-supplied VCOCAP value instead of
	// letting hardware calibration pick one (quick tune).
	FlagForceVCOCap uint8 = 1 << 1
)

// FrequencyDescriptor carries the precalculated synthesizer parameters for
// one retune. All fields are stable once written by the dispatcher;
// VCOCapResult is the single output field, written back by the tuning
// routine with the capacitance the hardware actually settled on.
type FrequencyDescriptor struct {
	NInt         uint16 // integer divider (9 bits)
	NFrac        uint32 // fractional divider (23 bits)
	FreqSel      uint8  // frequency-selection word
	VCOCap       uint8  // requested VCO capacitance
	VCOCapResult uint8  // achieved VCO capacitance, VCOCapUnknown until tuned
	Flags        uint8
}

// LowBand derives the band-select boolean from the descriptor flags.
func (f FrequencyDescriptor) LowBand() bool {
	return f.Flags&FlagLowBand != 0
}

// ForceVCOCap reports whether quick tune was requested.
func (f FrequencyDescriptor) ForceVCOCap() bool {
	return f.Flags&FlagForceVCOCap != 0
}
