package adapter

import (
	"github.com/radio-control/retune/internal/radio"
)

// Synthesizer defines the stable southbound contract to the RF frontend.
//
// Nothing in this interface blocks on the caller's behalf: implementations
// are expected to complete within the latency budget of the control loop.
// There is deliberately no context parameter; the hardware routines are
// not cancellable once started.
type Synthesizer interface {
	// Tune programs the synthesizer for the given module from the
	// precalculated descriptor. On return (success or failure) the
	// implementation has written the achieved VCO capacitance into
	// f.VCOCapResult, or left it at radio.VCOCapUnknown if the attempt
	// never reached calibration.
	Tune(m radio.Module, f *radio.FrequencyDescriptor) error

	// SelectBand routes the RF signal path for the module after a tune.
	SelectBand(m radio.Module, lowBand bool) error

	// ReadTimestamp returns the module's monotonic hardware counter.
	// It never fails; the counter is a free-running register.
	ReadTimestamp(m radio.Module) uint64
}

// Base provides common identity fields for Synthesizer implementations.
type Base struct {
	// DeviceID identifies the RF frontend this adapter controls
	DeviceID string

	// Model identifies the synthesizer chip
	Model string
}

// GetDeviceID returns the device identifier.
func (b *Base) GetDeviceID() string {
	return b.DeviceID
}

// GetModel returns the synthesizer model.
func (b *Base) GetModel() string {
	return b.Model
}
