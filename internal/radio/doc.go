// Package radio defines the core value types shared across the retune
// scheduler: the RX/TX module identifiers and the frequency descriptor
// handed to the RF synthesizer.
package radio
