package adapter

import (
	"errors"
	"fmt"
	"strings"
)

// Normalized hardware error codes.
var (
	ErrTuneFailed       = errors.New("TUNE_FAILED")
	ErrBandSelectFailed = errors.New("BAND_SELECT_FAILED")
	ErrUnavailable      = errors.New("UNAVAILABLE")
	ErrInternal         = errors.New("INTERNAL")
)

// VendorMap defines the error token mapping for a specific vendor.
type VendorMap struct {
	Tune        []string // Tokens that map to TUNE_FAILED
	BandSelect  []string // Tokens that map to BAND_SELECT_FAILED
	Unavailable []string // Tokens that map to UNAVAILABLE
}

// VendorErrorMappings contains the deterministic error mapping tables for
// all supported frontends. Unknown tokens map to INTERNAL; unknown vendors
// fall back to the generic table.
var VendorErrorMappings = map[string]VendorMap{
	"lms6002d": {
		Tune: []string{
			"VCOCAP_TUNE_FAILED",
			"PLL_NOT_LOCKED",
			"VTUNE_OUT_OF_RANGE",
			"CAL_TIMEOUT",
		},
		BandSelect: []string{
			"BAND_SWITCH_FAILED",
			"PA_SELECT_FAILED",
			"LNA_SELECT_FAILED",
		},
		Unavailable: []string{
			"SPI_TIMEOUT",
			"DEVICE_RESET",
			"NOT_INITIALIZED",
		},
	},
	"generic": {
		Tune: []string{
			"TUNE",
			"PLL",
			"LOCK",
			"CALIBRATION",
		},
		BandSelect: []string{
			"BAND",
			"PATH",
		},
		Unavailable: []string{
			"UNAVAILABLE",
			"TIMEOUT",
			"OFFLINE",
			"NOT_READY",
		},
	},
}

// VendorError wraps a vendor failure with its normalized code while
// preserving the original diagnostics.
type VendorError struct {
	Code     error       // Normalized code
	Original error       // Vendor error
	Details  interface{} // Vendor payload (opaque)
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("%v (vendor: %v)", e.Code, e.Original)
}

func (e *VendorError) Unwrap() error {
	return e.Code
}

// NormalizeVendorError maps a vendor error using the generic table.
func NormalizeVendorError(vendorErr error, vendorPayload interface{}) error {
	return NormalizeVendorErrorWithVendor(vendorErr, vendorPayload, "generic")
}

// NormalizeVendorErrorWithVendor maps a vendor error using that vendor's
// token table.
func NormalizeVendorErrorWithVendor(vendorErr error, vendorPayload interface{}, vendorID string) error {
	if vendorErr == nil {
		return nil
	}

	return &VendorError{
		Code:     mapVendorErrorToCode(vendorErr.Error(), vendorID),
		Original: vendorErr,
		Details:  vendorPayload,
	}
}

func mapVendorErrorToCode(msg string, vendorID string) error {
	vendorMap, exists := VendorErrorMappings[vendorID]
	if !exists {
		vendorMap = VendorErrorMappings["generic"]
	}

	upperMsg := strings.ToUpper(msg)

	for _, token := range vendorMap.Tune {
		if strings.Contains(upperMsg, token) {
			return ErrTuneFailed
		}
	}

	for _, token := range vendorMap.BandSelect {
		if strings.Contains(upperMsg, token) {
			return ErrBandSelectFailed
		}
	}

	for _, token := range vendorMap.Unavailable {
		if strings.Contains(upperMsg, token) {
			return ErrUnavailable
		}
	}

	return ErrInternal
}
