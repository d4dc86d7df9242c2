// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ubx

import (
	"bytes"
	"errors"
	"sort"
	"testing"
)

// ============================================================
// Key Width Tests
// ============================================================

func TestConfigKey_Width(t *testing.T) {
	tests := []struct {
		key   ConfigKey
		width ValueWidth
		err   error
	}{
		{KeySignalGalEnable, Width8, nil},       // bit
		{KeyNavSpgDynModel, Width8, nil},        // one byte
		{KeyMsgOutNavPVTUART1, Width8, nil},     // one byte
		{KeyRateMeas, Width16, nil},             // two bytes
		{KeyRateNav, Width16, nil},              // two bytes
		{0x40520001, 0, ErrUnsupportedKeyWidth}, // four bytes
		{KeySBASPRNScanMask, 0, ErrUnsupportedKeyWidth},
		{0x00000001, 0, ErrUnsupportedKeyWidth},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			w, err := tt.key.Width()
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected error %v, got %v", tt.err, err)
			}
			if w != tt.width {
				t.Errorf("expected width %v, got %v", tt.width, w)
			}
		})
	}
}

// ============================================================
// Frame Builder Tests
// ============================================================

func TestBuildValset_PlainHeader(t *testing.T) {
	h := ConfigHeader{Version: ValsetVersionPlain, Layers: LayerRAM}
	payload, err := BuildValset(h, []KeyValue{{Key: KeyNavSpgDynModel, Value: uint16(DynModelAirborne4G)}})
	if err != nil {
		t.Fatal(err)
	}

	expected := []byte{0x00, 0x01, 0x00, 0x21, 0x00, 0x11, 0x20, 0x08}
	if !bytes.Equal(payload, expected) {
		t.Errorf("expected % X, got % X", expected, payload)
	}
}

func TestBuildValset_TransactionalHeader(t *testing.T) {
	h := ConfigHeader{Version: ValsetVersionTransactional, Layers: LayerRAM | LayerBBR, Transaction: TransactionBegin}
	payload, err := BuildValset(h, []KeyValue{{Key: KeyRateMeas, Value: 200}})
	if err != nil {
		t.Fatal(err)
	}

	expected := []byte{0x01, 0x03, 0x01, 0x00, 0x01, 0x00, 0x21, 0x30, 0xC8, 0x00}
	if !bytes.Equal(payload, expected) {
		t.Errorf("expected % X, got % X", expected, payload)
	}
}

func TestBuildValset_Rejections(t *testing.T) {
	h := ConfigHeader{Layers: LayerRAM}
	tooMany := make([]KeyValue, MaxValsetEntries+1)
	for i := range tooMany {
		tooMany[i] = KeyValue{Key: KeySignalGalEnable, Value: 1}
	}

	tests := []struct {
		name    string
		entries []KeyValue
		want    error
	}{
		{"empty", nil, ErrNoEntries},
		{"too many", tooMany, ErrTooManyEntries},
		{"mixed", []KeyValue{{KeySignalGalEnable, 1}, {KeyRateMeas, 100}}, ErrMixedWidths},
		{"overflow", []KeyValue{{KeyNavSpgDynModel, 256}}, ErrValueOverflow},
		{"unsupported", []KeyValue{{KeySBASPRNScanMask, 0}}, ErrUnsupportedKeyWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildValset(h, tt.entries); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// ============================================================
// Batch Split Tests
// ============================================================

func TestSplitBatch_FortyNarrowKeys(t *testing.T) {
	entries := make([]KeyValue, 40)
	for i := range entries {
		entries[i] = KeyValue{Key: ConfigKey(0x20910000 + i), Value: uint16(i % 2)}
	}

	frames, err := SplitBatch(entries)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 || len(frames[0]) != 32 || len(frames[1]) != 8 {
		t.Fatalf("expected 32+8, got %d frames", len(frames))
	}
	if frames[1][0].Key != entries[32].Key {
		t.Errorf("order not preserved across chunks")
	}
}

func TestSplitBatch_NarrowBeforeWide(t *testing.T) {
	entries := []KeyValue{
		{KeyRateMeas, 100},
		{KeyNavSpgDynModel, uint16(DynModelAirborne1G)},
		{KeyRateNav, 1},
		{KeySignalGLOEnable, 0},
	}

	frames, err := SplitBatch(entries)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	for _, e := range frames[0] {
		if w, _ := e.Key.Width(); w != Width8 {
			t.Errorf("first frame should be 8-bit only, got %s", e.Key)
		}
	}
	for _, e := range frames[1] {
		if w, _ := e.Key.Width(); w != Width16 {
			t.Errorf("second frame should be 16-bit only, got %s", e.Key)
		}
	}
}

func TestSplitBatch_UnsupportedKeyFailsWholeBatch(t *testing.T) {
	_, err := SplitBatch([]KeyValue{{KeyRateMeas, 100}, {KeySBASPRNScanMask, 0}})
	if !errors.Is(err, ErrUnsupportedKeyWidth) {
		t.Errorf("expected ErrUnsupportedKeyWidth, got %v", err)
	}
}

// ============================================================
// Round Trip Tests
// ============================================================

func TestValset_RoundTrip(t *testing.T) {
	var entries []KeyValue
	for i := 0; i < 37; i++ {
		entries = append(entries, KeyValue{Key: ConfigKey(0x10310000 + i), Value: uint16(i & 1)})
	}
	for i := 0; i < 5; i++ {
		entries = append(entries, KeyValue{Key: ConfigKey(0x30210000 + i), Value: uint16(1000 + i)})
	}

	frames, err := SplitBatch(entries)
	if err != nil {
		t.Fatal(err)
	}

	var got []KeyValue
	for _, group := range frames {
		h := ConfigHeader{Version: ValsetVersionTransactional, Layers: LayerRAM, Transaction: TransactionContinue}
		f, err := NewValset(h, group)
		if err != nil {
			t.Fatal(err)
		}

		// through the wire and back
		decoded, err := DecodeFrame(f.AppendWire(nil))
		if err != nil {
			t.Fatal(err)
		}
		parsedHeader, kvs, err := ParseValset(decoded.Payload)
		if err != nil {
			t.Fatal(err)
		}
		if parsedHeader != h {
			t.Errorf("header mismatch: %+v", parsedHeader)
		}
		got = append(got, kvs...)
	}

	sortKV := func(kv []KeyValue) {
		sort.Slice(kv, func(i, j int) bool { return kv[i].Key < kv[j].Key })
	}
	want := append([]KeyValue(nil), entries...)
	sortKV(want)
	sortKV(got)

	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestParseValset_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    error
	}{
		{"short", []byte{0x00, 0x01}, ErrLengthMismatch},
		{"version", []byte{0x05, 0x01, 0x00}, ErrUnsupportedVersion},
		{"truncated key", []byte{0x00, 0x01, 0x00, 0x21, 0x00}, ErrLengthMismatch},
		{"truncated value", []byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x21, 0x30, 0x64}, ErrLengthMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseValset(tt.payload); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
