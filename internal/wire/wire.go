// Package wire implements the 16-byte retune packet format spoken over the
// host link.
//
// Request layout (little endian):
//
//	[0]     magic 'T'
//	[1:9]   target timestamp; 0 means retune immediately
//	[9:13]  frequency word: nint[8:0] << 23 | nfrac[22:0]
//	[13]    bit 7: low-band, bit 6: quick tune, bits [5:0]: freqsel
//	[14]    bits [5:0]: requested VCOCAP
//	[15]    module identifier
//
// Response layout:
//
//	[0]     magic 'T'
//	[1:9]   measured tune duration in timestamp ticks
//	[9]     achieved VCOCAP (0xFF when no tune was attempted)
//	[10]    bit 0: success, bit 1: timestamp/tune valid
//	[11:16] reserved, zero
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/radio-control/retune/internal/radio"
)

// PacketLen is the fixed size of both request and response frames.
const PacketLen = 16

// Magic identifies a retune packet.
const Magic = 0x54 // 'T'

// Request field masks.
const (
	nintBits  = 9
	nfracBits = 23
	nfracMask = 1<<nfracBits - 1
	nintMask  = 1<<nintBits - 1

	flagBitLowBand   = 1 << 7
	flagBitQuickTune = 1 << 6
	freqselMask      = 0x3F
	vcocapMask       = 0x3F
)

// Response flag bits.
const (
	RespFlagSuccess   = 1 << 0
	RespFlagTuneValid = 1 << 1
)

var (
	ErrShortPacket = errors.New("wire: short packet")
	ErrBadMagic    = errors.New("wire: bad magic")
)

// Request is a decoded retune request.
type Request struct {
	Module    radio.Module
	Timestamp uint64
	NInt      uint16
	NFrac     uint32
	FreqSel   uint8
	VCOCap    uint8
	LowBand   bool
	QuickTune bool
}

// Immediate reports whether the request carries the reserved
// execute-immediately timestamp.
func (r Request) Immediate() bool {
	return r.Timestamp == radio.TimestampNow
}

// DecodeRequest parses a request frame.
func DecodeRequest(buf []byte) (Request, error) {
	if len(buf) < PacketLen {
		return Request{}, fmt.Errorf("%w: got %d bytes, want %d", ErrShortPacket, len(buf), PacketLen)
	}
	if buf[0] != Magic {
		return Request{}, fmt.Errorf("%w: 0x%02x", ErrBadMagic, buf[0])
	}

	freq := binary.LittleEndian.Uint32(buf[9:13])

	return Request{
		Module:    radio.Module(buf[15]),
		Timestamp: binary.LittleEndian.Uint64(buf[1:9]),
		NInt:      uint16(freq >> nfracBits & nintMask),
		NFrac:     freq & nfracMask,
		FreqSel:   buf[13] & freqselMask,
		VCOCap:    buf[14] & vcocapMask,
		LowBand:   buf[13]&flagBitLowBand != 0,
		QuickTune: buf[13]&flagBitQuickTune != 0,
	}, nil
}

// Encode serializes a request frame.
func (r Request) Encode() [PacketLen]byte {
	var buf [PacketLen]byte
	buf[0] = Magic
	binary.LittleEndian.PutUint64(buf[1:9], r.Timestamp)

	freq := uint32(r.NInt&nintMask)<<nfracBits | r.NFrac&nfracMask
	binary.LittleEndian.PutUint32(buf[9:13], freq)

	buf[13] = r.FreqSel & freqselMask
	if r.LowBand {
		buf[13] |= flagBitLowBand
	}
	if r.QuickTune {
		buf[13] |= flagBitQuickTune
	}
	buf[14] = r.VCOCap & vcocapMask
	buf[15] = uint8(r.Module)
	return buf
}

// Response is a retune response prior to serialization.
type Response struct {
	Duration     uint64
	VCOCapResult uint8
	Success      bool
	TuneValid    bool
}

// Encode serializes a response frame.
func (r Response) Encode() [PacketLen]byte {
	var buf [PacketLen]byte
	buf[0] = Magic
	binary.LittleEndian.PutUint64(buf[1:9], r.Duration)
	buf[9] = r.VCOCapResult
	if r.Success {
		buf[10] |= RespFlagSuccess
	}
	if r.TuneValid {
		buf[10] |= RespFlagTuneValid
	}
	return buf
}

// DecodeResponse parses a response frame.
func DecodeResponse(buf []byte) (Response, error) {
	if len(buf) < PacketLen {
		return Response{}, fmt.Errorf("%w: got %d bytes, want %d", ErrShortPacket, len(buf), PacketLen)
	}
	if buf[0] != Magic {
		return Response{}, fmt.Errorf("%w: 0x%02x", ErrBadMagic, buf[0])
	}

	return Response{
		Duration:     binary.LittleEndian.Uint64(buf[1:9]),
		VCOCapResult: buf[9],
		Success:      buf[10]&RespFlagSuccess != 0,
		TuneValid:    buf[10]&RespFlagTuneValid != 0,
	}, nil
}
