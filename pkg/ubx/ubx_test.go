// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ubx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// ============================================================
// Test Helpers
// ============================================================

// feed pushes data through d and returns every completed frame (cloned)
// together with every decoder error.
func feed(d *Decoder, data []byte) ([]*Frame, []error) {
	var frames []*Frame
	var errs []error
	for _, b := range data {
		f, err := d.DecodeByte(b)
		if err != nil {
			errs = append(errs, err)
		}
		if f != nil {
			frames = append(frames, f.Clone())
		}
	}
	return frames, errs
}

func putI16(b []byte, v int16) { binary.LittleEndian.PutUint16(b, uint16(v)) }
func putI32(b []byte, v int32) { binary.LittleEndian.PutUint32(b, uint32(v)) }

// buildNavSigPayload creates a NAV-SIG payload with count signals.
// Signal i has svId i+1 and C/N0 30+i%20.
func buildNavSigPayload(count int) []byte {
	p := make([]byte, navSigHeaderSize+count*navSigBlockSize)
	binary.LittleEndian.PutUint32(p[0:], 123456)
	p[4] = NavSigVersion
	p[5] = uint8(count)
	for i := 0; i < count; i++ {
		b := p[navSigHeaderSize+i*navSigBlockSize:]
		b[0] = GnssGPS
		b[1] = uint8(i + 1)
		b[2] = 0
		b[3] = 0
		putI16(b[4:], -12)
		b[6] = uint8(30 + i%20)
		b[7] = uint8(SignalQualityCodeCarrierLockTimeSync)
		binary.LittleEndian.PutUint16(b[10:], SigPRUsed|uint16(SignalHealthHealthy))
	}
	return p
}

// ============================================================
// Checksum Tests
// ============================================================

func TestCalculateChecksum_Empty(t *testing.T) {
	a, b := CalculateChecksum(nil)
	if a != 0 || b != 0 {
		t.Errorf("checksum of empty data should be 0/0, got %02X/%02X", a, b)
	}
}

func TestCalculateChecksum_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		ckA  uint8
		ckB  uint8
	}{
		{
			name: "ACK-ACK for CFG 0x07",
			data: []byte{0x05, 0x01, 0x02, 0x00, 0x06, 0x07},
			ckA:  0x15,
			ckB:  0x3E,
		},
		{
			name: "MON-VER poll",
			data: []byte{0x0A, 0x04, 0x00, 0x00},
			ckA:  0x0E,
			ckB:  0x34,
		},
		{
			name: "wraps modulo 256",
			data: []byte{0xFF, 0xFF},
			ckA:  0xFE,
			ckB:  0xFD,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := CalculateChecksum(tt.data)
			if a != tt.ckA || b != tt.ckB {
				t.Errorf("expected %02X%02X, got %02X%02X", tt.ckA, tt.ckB, a, b)
			}
		})
	}
}

// ============================================================
// Encoder Tests
// ============================================================

func TestEncodeFrame_Layout(t *testing.T) {
	data, err := EncodeFrame(ClassACK, MsgAckAck, []byte{0x06, 0x07})
	if err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}

	expected := []byte{0xB5, 0x62, 0x05, 0x01, 0x02, 0x00, 0x06, 0x07, 0x15, 0x3E}
	if !bytes.Equal(data, expected) {
		t.Errorf("expected % X, got % X", expected, data)
	}
}

func TestEncodeFrame_TooLarge(t *testing.T) {
	_, err := EncodeFrame(ClassNAV, MsgNavSig, make([]byte, MaxPayloadSize+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestNewPoll(t *testing.T) {
	expected := []byte{0xB5, 0x62, 0x0A, 0x04, 0x00, 0x00, 0x0E, 0x34}
	if got := NewPoll(ClassMON, MsgMonVer); !bytes.Equal(got, expected) {
		t.Errorf("expected % X, got % X", expected, got)
	}
}

func TestDecodeFrame_Errors(t *testing.T) {
	good, _ := EncodeFrame(ClassACK, MsgAckAck, []byte{0x06, 0x07})

	badChecksum := append([]byte(nil), good...)
	badChecksum[len(badChecksum)-1] ^= 0xFF

	badPreamble := append([]byte(nil), good...)
	badPreamble[1] = 0x63

	trailing := append(append([]byte(nil), good...), 0x00)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short", good[:5], ErrShortFrame},
		{"preamble", badPreamble, ErrBadPreamble},
		{"checksum", badChecksum, ErrChecksumMismatch},
		{"trailing byte", trailing, ErrLengthMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeFrame(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// ============================================================
// Decoder Tests
// ============================================================

func TestDecoder_AckFrame(t *testing.T) {
	d := NewDecoder()
	frames, errs := feed(d, []byte{0xB5, 0x62, 0x05, 0x01, 0x02, 0x00, 0x06, 0x07, 0x15, 0x3E})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}

	f := frames[0]
	if !f.Is(ClassACK, MsgAckAck) {
		t.Errorf("expected ACK-ACK, got 0x%02X 0x%02X", f.Class, f.ID)
	}
	if !bytes.Equal(f.Payload, []byte{0x06, 0x07}) {
		t.Errorf("payload mismatch: % X", f.Payload)
	}
}

func TestDecoder_EmptyPayload(t *testing.T) {
	d := NewDecoder()
	frames, _ := feed(d, NewPoll(ClassMON, MsgMonGNSS))
	if len(frames) != 1 || frames[0].Length() != 0 {
		t.Fatalf("expected one empty frame, got %v", frames)
	}
}

func TestDecoder_ResyncAfterNoise(t *testing.T) {
	frame, _ := EncodeFrame(ClassNAV, MsgNavStatus, make([]byte, navStatusSize))

	stream := []byte{0x00, 0x62, 0xB5, 0x00, 0xB5, 0xB5}
	stream = append(stream, frame[1:]...) // B5 B5 62 ... resolves to a frame
	stream = append(stream, 0x13, 0x37)
	stream = append(stream, frame...)

	d := NewDecoder()
	frames, errs := feed(d, stream)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if d.Skipped() == 0 {
		t.Error("expected skipped bytes to be counted")
	}
}

func TestDecoder_ChecksumMismatch(t *testing.T) {
	frame, _ := EncodeFrame(ClassACK, MsgAckAck, []byte{0x06, 0x07})
	frame[len(frame)-2] ^= 0x01

	d := NewDecoder()
	frames, errs := feed(d, frame)
	if len(frames) != 0 {
		t.Errorf("corrupt frame must not be delivered")
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrChecksumMismatch) {
		t.Errorf("expected one ErrChecksumMismatch, got %v", errs)
	}

	// Decoder recovers on the next frame
	good, _ := EncodeFrame(ClassACK, MsgAckAck, []byte{0x06, 0x07})
	if frames, _ := feed(d, good); len(frames) != 1 {
		t.Errorf("decoder did not recover after checksum error")
	}
}

func TestDecoder_OversizeLength(t *testing.T) {
	over := MaxPayloadSize + 1
	header := []byte{0xB5, 0x62, ClassNAV, MsgNavSig, byte(over), byte(over >> 8)}

	d := NewDecoder()
	_, errs := feed(d, header)
	if len(errs) != 1 || !errors.Is(errs[0], ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", errs)
	}

	good, _ := EncodeFrame(ClassNAV, MsgNavSig, buildNavSigPayload(MaxSignals))
	frames, errs := feed(d, good)
	if len(errs) != 0 || len(frames) != 1 {
		t.Fatalf("expected max-size frame after reset, got %d frames, errors %v", len(frames), errs)
	}
	if frames[0].Length() != MaxPayloadSize {
		t.Errorf("expected %d byte payload, got %d", MaxPayloadSize, frames[0].Length())
	}
}

func TestDecoder_FrameAliasesBuffer(t *testing.T) {
	d := NewDecoder()
	a, _ := EncodeFrame(ClassACK, MsgAckAck, []byte{0x06, 0x07})
	b, _ := EncodeFrame(ClassACK, MsgAckAck, []byte{0x0A, 0x04})

	var first *Frame
	for _, x := range a {
		if f, _ := d.DecodeByte(x); f != nil {
			first = f
		}
	}
	kept := first.Clone()
	for _, x := range b {
		d.DecodeByte(x)
	}

	if !bytes.Equal(kept.Payload, []byte{0x06, 0x07}) {
		t.Errorf("clone should own its payload, got % X", kept.Payload)
	}
}

func TestDecoder_NoAllocs(t *testing.T) {
	frame, _ := EncodeFrame(ClassNAV, MsgNavSig, buildNavSigPayload(8))
	d := NewDecoder()

	allocs := testing.AllocsPerRun(100, func() {
		for _, b := range frame {
			d.DecodeByte(b)
		}
	})
	if allocs != 0 {
		t.Errorf("decoding allocated %.1f times per frame", allocs)
	}
}

// ============================================================
// Version Tests
// ============================================================

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want Version
		ok   bool
	}{
		{"PROTVER=18.00", Version{18, 0}, true},
		{"PROTVER 15.00", Version{15, 0}, true},
		{"ROM CORE 3.01 (107888)", Version{3, 1}, true},
		{"EXT CORE 1.00 (61b2dd)", Version{1, 0}, true},
		{"SPG 4.04", Version{4, 4}, true},
		{"7.03 (45969)", Version{7, 3}, true},
		{"1.2.3", Version{1, 2}, true},
		{"no version here", Version{}, false},
		{"", Version{}, false},
		{"FWVER=SPG", Version{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseVersion(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseVersion(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestVersionCompare(t *testing.T) {
	v := Version{Major: 18, Minor: 10}
	if v.Compare(Version{18, 10}) != 0 {
		t.Error("equal versions should compare 0")
	}
	if v.Compare(Version{19, 0}) != -1 {
		t.Error("18.10 should be less than 19.00")
	}
	if v.Compare(Version{18, 2}) != 1 {
		t.Error("18.10 should be greater than 18.02")
	}
}

func TestParseHWVersion(t *testing.T) {
	tests := []struct {
		in   string
		want HWVersion
	}{
		{"00040005", HWVersionUblox5},
		{"00040007", HWVersionUblox6},
		{"00070000", HWVersionUblox7},
		{"00080000", HWVersionUblox8},
		{"00190000", HWVersionUblox9},
		{"000A0000", HWVersionUblox10},
		{"000a0000", HWVersionUblox10},
		{"12345678", HWVersionUnknown},
		{"garbage", HWVersionUnknown},
	}

	for _, tt := range tests {
		if got := ParseHWVersion(tt.in); got != tt.want {
			t.Errorf("ParseHWVersion(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
