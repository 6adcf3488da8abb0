package retune

import (
	"time"

	"github.com/radio-control/retune/internal/radio"
)

// Timer is the timer-completion subsystem. Schedule arms a completion
// signal for the entry's target timestamp; the implementation later calls
// entry.MarkReady from its own goroutine. Schedule must not block.
type Timer interface {
	Schedule(m radio.Module, e *Entry, target uint64)
}

// AuditLogger records the outcome of every host retune request.
type AuditLogger interface {
	LogRetune(m radio.Module, path string, outcome string, latency time.Duration)
}

// Dispatch path labels used for audit and metrics.
const (
	PathImmediate = "immediate"
	PathDeferred  = "deferred"
)

// Outcome codes used for audit and metrics.
const (
	OutcomeSuccess       = "SUCCESS"
	OutcomeQueueFull     = "QUEUE_FULL"
	OutcomeInvalidModule = "INVALID_MODULE"
	OutcomeTuneFailed    = "TUNE_FAILED"
	OutcomeBandFailed    = "BAND_SELECT_FAILED"
)
