// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ubx

import (
	"errors"
	"fmt"
)

// Decoder errors
var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrPayloadTooLarge  = errors.New("payload too large")
)

// Decoder implements the UBX frame decoder state machine.
//
// It holds a single fixed-size payload buffer and never allocates while
// decoding. It is not safe for concurrent use.
type Decoder struct {
	state   int
	class   uint8
	id      uint8
	length  int
	count   int
	ckA     uint8
	ck      checksum
	buffer  [MaxPayloadSize]byte
	frame   Frame
	skipped uint64
}

// NewDecoder creates a new frame decoder
func NewDecoder() *Decoder {
	return &Decoder{state: stateSync1}
}

// Reset discards any partial frame and waits for the next preamble
func (d *Decoder) Reset() {
	d.state = stateSync1
	d.length = 0
	d.count = 0
	d.ck.reset()
}

// Skipped returns the number of bytes discarded while hunting for a preamble
func (d *Decoder) Skipped() uint64 {
	return d.skipped
}

// DecodeByte processes a single byte through the decoder state machine.
// Returns a completed frame, or nil if the frame is incomplete.
// Returns an error when a frame is abandoned (bad length or checksum);
// the decoder has already resynchronized when that happens.
func (d *Decoder) DecodeByte(b byte) (*Frame, error) {
	switch d.state {
	case stateSync1:
		if b == Sync1 {
			d.state = stateSync2
		} else {
			d.skipped++
		}
		return nil, nil

	case stateSync2:
		if b == Sync1 {
			// B5 B5 62: the second byte may start the real frame
			d.skipped++
			return nil, nil
		}
		if b != Sync2 {
			d.skipped += 2
			d.Reset()
			return nil, nil
		}
		d.ck.reset()
		d.state = stateClass
		return nil, nil

	case stateClass:
		d.class = b
		d.ck.add(b)
		d.state = stateID
		return nil, nil

	case stateID:
		d.id = b
		d.ck.add(b)
		d.state = stateLength1
		return nil, nil

	case stateLength1:
		d.length = int(b)
		d.ck.add(b)
		d.state = stateLength2
		return nil, nil

	case stateLength2:
		d.length |= int(b) << 8
		d.ck.add(b)
		if d.length > MaxPayloadSize {
			length := d.length
			d.Reset()
			return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, length, MaxPayloadSize)
		}
		d.count = 0
		if d.length == 0 {
			d.state = stateChecksumA
		} else {
			d.state = statePayload
		}
		return nil, nil

	case statePayload:
		d.buffer[d.count] = b
		d.count++
		d.ck.add(b)
		if d.count >= d.length {
			d.state = stateChecksumA
		}
		return nil, nil

	case stateChecksumA:
		d.ckA = b
		d.state = stateChecksumB
		return nil, nil

	case stateChecksumB:
		ckA, ckB := d.ck.a, d.ck.b
		gotA := d.ckA
		length := d.length
		d.Reset()
		if gotA != ckA || b != ckB {
			return nil, fmt.Errorf("%w: class 0x%02X id 0x%02X expected %02X%02X, got %02X%02X",
				ErrChecksumMismatch, d.class, d.id, ckA, ckB, gotA, b)
		}
		d.frame = Frame{
			Class:   d.class,
			ID:      d.id,
			Payload: d.buffer[:length],
			CkA:     ckA,
			CkB:     ckB,
		}
		return &d.frame, nil

	default:
		state := d.state
		d.Reset()
		return nil, fmt.Errorf("invalid state: %d", state)
	}
}
