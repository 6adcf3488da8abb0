// Package adapter defines the southbound hardware contract for the retune
// scheduler.
//
// Synthesizer implementations speak to the actual RF frontend: programming
// the synthesizer dividers, selecting the band path, and reading the
// monotonic hardware timestamp counter. Vendor-specific failures are
// normalized to a small set of stable error codes so the core never
// branches on vendor strings.
package adapter
