// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ubx

// Frame is a checksum-validated UBX message.
//
// Frames returned by Decoder.DecodeByte reference the decoder's payload
// buffer and are only valid until the next call; use Clone to keep one.
type Frame struct {
	Class   uint8
	ID      uint8
	Payload []byte
	CkA     uint8
	CkB     uint8
}

// Length returns the payload length
func (f *Frame) Length() int {
	return len(f.Payload)
}

// Is reports whether the frame carries the given class and id
func (f *Frame) Is(class, id uint8) bool {
	return f.Class == class && f.ID == id
}

// Clone returns a copy of the frame that owns its payload
func (f *Frame) Clone() *Frame {
	c := *f
	c.Payload = append([]byte(nil), f.Payload...)
	return &c
}

// AppendWire appends the frame's full wire encoding to dst
func (f *Frame) AppendWire(dst []byte) []byte {
	return AppendFrame(dst, f.Class, f.ID, f.Payload)
}
