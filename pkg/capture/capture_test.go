// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/Thermoquad/gnomon/pkg/ubx"
)

type fakeSleeper struct {
	waits []time.Duration
}

func (f *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	f.waits = append(f.waits, d)
	return nil
}

func frames() [][]byte {
	return [][]byte{
		ubx.AppendFrame(nil, ubx.ClassMON, ubx.MsgMonVer, nil),
		ubx.AppendFrame(nil, ubx.ClassACK, ubx.MsgAckAck, []byte{ubx.ClassCFG, ubx.MsgCfgValset}),
		ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavPVT, make([]byte, 92)),
	}
}

// ============================================================
// Round Trip Tests
// ============================================================

func TestCapture_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC)

	w, err := NewWriter(&buf, "/dev/ttyACM0", start)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	in := frames()
	dirs := []Direction{ToReceiver, FromReceiver, FromReceiver}
	for i, f := range in {
		if err := w.WriteFrame(start.Add(time.Duration(i)*100*time.Millisecond), dirs[i], f); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFrame(start, FromReceiver, in[0]); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("expected ErrWriterClosed, got %v", err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	h := r.Header()
	if h.Session != w.Header().Session || h.Source != "/dev/ttyACM0" || !h.StartTime().Equal(start) {
		t.Errorf("header %+v", h)
	}
	if _, err := uuid.Parse(h.Session); err != nil {
		t.Errorf("session id %q: %v", h.Session, err)
	}

	recs, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(recs) != len(in) {
		t.Fatalf("expected %d records, got %d", len(in), len(recs))
	}
	for i, rec := range recs {
		if !bytes.Equal(rec.Frame, in[i]) || rec.Dir != dirs[i] || rec.At != time.Duration(i)*100*time.Millisecond {
			t.Errorf("record %d: %+v", i, rec)
		}
		if _, err := ubx.DecodeFrame(rec.Frame); err != nil {
			t.Errorf("record %d is not a valid frame: %v", i, err)
		}
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after the last record, got %v", err)
	}
}

func TestCapture_EmptyFrameRejected(t *testing.T) {
	w, err := NewWriter(io.Discard, "", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFrame(time.Now(), FromReceiver, nil); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("expected ErrEmptyFrame, got %v", err)
	}
}

func TestCapture_BadHeader(t *testing.T) {
	encode := func(h Header) []byte {
		b, err := cbor.Marshal(&h)
		if err != nil {
			t.Fatal(err)
		}
		return b
	}
	session := uuid.New().String()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrBadHeader},
		{"format", encode(Header{Format: "other", Version: FormatVersion, Session: session}), ErrBadHeader},
		{"version", encode(Header{Format: FormatName, Version: 9, Session: session}), ErrBadVersion},
		{"session", encode(Header{Format: FormatName, Version: FormatVersion, Session: "nope"}), ErrBadHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewReader(bytes.NewReader(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCapture_TruncatedRecord(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf, "", time.Now())
	_ = w.WriteFrame(time.Now(), FromReceiver, frames()[2])
	_ = w.Close()

	data := buf.Bytes()[:buf.Len()-10]
	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	recs, err := r.ReadAll()
	if err == nil || len(recs) != 0 {
		t.Errorf("truncated stream read as %d records, err %v", len(recs), err)
	}
}

// ============================================================
// Playback Tests
// ============================================================

func TestPlay_Timing(t *testing.T) {
	recs := []Record{
		{At: 0, Dir: FromReceiver, Frame: []byte{1}},
		{At: 100 * time.Millisecond, Dir: ToReceiver, Frame: []byte{2}},
		{At: 300 * time.Millisecond, Dir: FromReceiver, Frame: []byte{3}},
	}

	s := &fakeSleeper{}
	var got []byte
	err := Play(context.Background(), recs, PlayOptions{Speed: 2, Sleeper: s}, func(r Record) error {
		got = append(got, r.Frame...)
		return nil
	})
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("order %v", got)
	}
	want := []time.Duration{50 * time.Millisecond, 100 * time.Millisecond}
	if len(s.waits) != 2 || s.waits[0] != want[0] || s.waits[1] != want[1] {
		t.Errorf("waits %v, want %v", s.waits, want)
	}

	// Filtering by direction measures gaps between the kept records
	s = &fakeSleeper{}
	rx := FromReceiver
	got = got[:0]
	_ = Play(context.Background(), recs, PlayOptions{Dir: &rx, Sleeper: s}, func(r Record) error {
		got = append(got, r.Frame...)
		return nil
	})
	if !bytes.Equal(got, []byte{1, 3}) || len(s.waits) != 1 || s.waits[0] != 300*time.Millisecond {
		t.Errorf("filtered playback %v, waits %v", got, s.waits)
	}
}

func TestPlay_StopsOnCallbackErrorAndCancel(t *testing.T) {
	recs := []Record{{Frame: []byte{1}}, {Frame: []byte{2}}}
	stop := errors.New("stop")

	calls := 0
	err := Play(context.Background(), recs, PlayOptions{Loop: true, Sleeper: &fakeSleeper{}}, func(Record) error {
		calls++
		if calls == 5 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || calls != 5 {
		t.Errorf("looped %d times, err %v", calls, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Play(ctx, recs, PlayOptions{Sleeper: &fakeSleeper{}}, func(Record) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if err := Play(context.Background(), nil, PlayOptions{}, func(Record) error { return nil }); err == nil {
		t.Error("expected an error for no records")
	}
}
