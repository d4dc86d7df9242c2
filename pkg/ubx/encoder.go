// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ubx

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Bulk decode errors
var (
	ErrShortFrame  = errors.New("frame too short")
	ErrBadPreamble = errors.New("bad preamble")
)

// EncodeFrame creates a complete wire-formatted UBX frame.
// Returns the frame bytes ready for transmission, including preamble and checksum.
func EncodeFrame(class, id uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}
	return AppendFrame(make([]byte, 0, len(payload)+FrameOverhead), class, id, payload), nil
}

// AppendFrame appends a wire-formatted frame to dst.
// The caller is responsible for keeping payload within MaxPayloadSize.
func AppendFrame(dst []byte, class, id uint8, payload []byte) []byte {
	start := len(dst)
	dst = append(dst, Sync1, Sync2, class, id, byte(len(payload)), byte(len(payload)>>8))
	dst = append(dst, payload...)

	// Checksum covers everything after the preamble
	ckA, ckB := CalculateChecksum(dst[start+2:])
	return append(dst, ckA, ckB)
}

// NewPoll creates an empty-payload poll request for class/id.
// The receiver answers a poll with the polled message itself, not an ACK.
func NewPoll(class, id uint8) []byte {
	return AppendFrame(make([]byte, 0, FrameOverhead), class, id, nil)
}

// DecodeFrame validates a single complete frame held in data.
// It is the bulk counterpart of Decoder and accepts exactly one frame with
// no leading or trailing bytes.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameOverhead {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(data))
	}
	if data[0] != Sync1 || data[1] != Sync2 {
		return nil, fmt.Errorf("%w: %02X %02X", ErrBadPreamble, data[0], data[1])
	}

	length := int(binary.LittleEndian.Uint16(data[4:6]))
	if length > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, length, MaxPayloadSize)
	}
	if len(data) != length+FrameOverhead {
		return nil, fmt.Errorf("%w: declared %d payload bytes, frame holds %d", ErrLengthMismatch, length, len(data)-FrameOverhead)
	}

	ckA, ckB := CalculateChecksum(data[2 : HeaderSize+length])
	if data[HeaderSize+length] != ckA || data[HeaderSize+length+1] != ckB {
		return nil, fmt.Errorf("%w: expected %02X%02X, got %02X%02X",
			ErrChecksumMismatch, ckA, ckB, data[HeaderSize+length], data[HeaderSize+length+1])
	}

	return &Frame{
		Class:   data[2],
		ID:      data[3],
		Payload: append([]byte(nil), data[HeaderSize:HeaderSize+length]...),
		CkA:     ckA,
		CkB:     ckB,
	}, nil
}

// payloadWriter builds little-endian payloads
type payloadWriter struct {
	buf []byte
}

func newPayloadWriter(size int) *payloadWriter {
	return &payloadWriter{buf: make([]byte, 0, size)}
}

func (w *payloadWriter) u1(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *payloadWriter) u2(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *payloadWriter) u4(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *payloadWriter) zero(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

func (w *payloadWriter) bytes() []byte {
	return w.buf
}
