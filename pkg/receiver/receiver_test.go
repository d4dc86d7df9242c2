// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package receiver

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/Thermoquad/gnomon/pkg/ubx"
)

// ============================================================
// Test Helpers
// ============================================================

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// newTestDriver returns a driver writing to a buffer, on a fake clock, with
// capability polling off unless opts turn it back on
func newTestDriver(opts ...Option) (*Driver, *bytes.Buffer, *fakeClock) {
	buf := &bytes.Buffer{}
	clock := &fakeClock{t: time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC)}
	all := append([]Option{WithClock(clock.now), WithCapabilityPolling(false)}, opts...)
	return New(buf, all...), buf, clock
}

// written decodes every frame the driver has sent so far
func written(t *testing.T, buf *bytes.Buffer) []*ubx.Frame {
	t.Helper()
	dec := ubx.NewDecoder()
	var frames []*ubx.Frame
	for _, b := range buf.Bytes() {
		f, err := dec.DecodeByte(b)
		if err != nil {
			t.Fatalf("driver wrote an invalid frame: %v", err)
		}
		if f != nil {
			frames = append(frames, f.Clone())
		}
	}
	return frames
}

func ackFrame(class, id uint8) []byte {
	return ubx.AppendFrame(nil, ubx.ClassACK, ubx.MsgAckAck, []byte{class, id})
}

func nakFrame(class, id uint8) []byte {
	return ubx.AppendFrame(nil, ubx.ClassACK, ubx.MsgAckNak, []byte{class, id})
}

func putU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func putU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func putI32(b []byte, v int32)  { binary.LittleEndian.PutUint32(b, uint32(v)) }

func navPVTPayload() []byte {
	p := make([]byte, 92)
	putU32(p[0:], 345600000) // iTOW
	putU16(p[4:], 2025)
	p[6], p[7], p[8], p[9], p[10] = 6, 21, 12, 30, 15
	p[11] = ubx.ValidDate | ubx.ValidTime
	p[20] = uint8(ubx.Fix3D)
	p[21] = ubx.NavStatusFixValid
	p[23] = 14 // numSV
	putI32(p[24:], -1223000000)
	putI32(p[28:], 476000000)
	putI32(p[32:], 120000)
	putI32(p[36:], 100000)
	putU32(p[40:], 1500)
	putU32(p[44:], 2500)
	putI32(p[48:], 1234)  // velN mm/s
	putI32(p[52:], -2000) // velE
	putI32(p[56:], 300)   // velD
	putI32(p[60:], 5000)  // gSpeed
	putI32(p[64:], 9000000)
	putU32(p[68:], 400)
	putU16(p[76:], 125) // pDOP
	return p
}

func navPosLLHPayload(lat, lon int32) []byte {
	p := make([]byte, 28)
	putU32(p[0:], 1000)
	putI32(p[4:], lon)
	putI32(p[8:], lat)
	putI32(p[12:], 50000)
	putI32(p[16:], 45000)
	putU32(p[20:], 900)
	putU32(p[24:], 1800)
	return p
}

func navVelNEDPayload() []byte {
	p := make([]byte, 36)
	putU32(p[0:], 2000)
	putI32(p[4:], 150)
	putI32(p[8:], -75)
	putI32(p[12:], 10)
	putU32(p[16:], 170)
	putU32(p[20:], 168)
	putI32(p[24:], 18000000)
	return p
}

func navSigPayload(count int, itow uint32) []byte {
	p := make([]byte, 8+16*count)
	putU32(p[0:], itow)
	p[4] = ubx.NavSigVersion
	p[5] = uint8(count)
	for i := 0; i < count; i++ {
		b := p[8+16*i:]
		b[0] = uint8(i % 7)
		b[1] = uint8(i + 1)
		b[6] = uint8(20 + i%30)
		b[7] = uint8(ubx.SignalQualityCodeCarrierLockTimeSync)
		putU16(b[10:], ubx.SigPRUsed|1)
	}
	return p
}

func monVerPayload(sw, hw string, ext ...string) []byte {
	p := make([]byte, 40+30*len(ext))
	copy(p[0:30], sw)
	copy(p[30:40], hw)
	for i, e := range ext {
		copy(p[40+30*i:], e)
	}
	return p
}

func monGNSSPayload(supported, def, enabled, maxConcurrent uint8) []byte {
	return []byte{0, supported, def, enabled, maxConcurrent, 0, 0, 0}
}

// ============================================================
// Command Tests
// ============================================================

// Scenario A: an ACK-ACK naming the waiting command acknowledges it
func TestDriver_AckResolvesWaitingCommand(t *testing.T) {
	d, buf, _ := newTestDriver()

	cmd := &ubx.Frame{Class: 0x06, ID: 0x07, Payload: []byte{0x01}}
	if err := d.SendCommand(cmd); err != nil {
		t.Fatalf("SendCommand failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), cmd.AppendWire(nil)) {
		t.Errorf("wrote % X", buf.Bytes())
	}
	if s := d.CommandState(); s != CommandWaiting {
		t.Fatalf("expected waiting, got %v", s)
	}

	d.Receive([]byte{0xB5, 0x62, 0x05, 0x01, 0x02, 0x00, 0x06, 0x07, 0x15, 0x3E})

	if s := d.CommandState(); s != CommandAcknowledged {
		t.Errorf("expected acknowledged, got %v", s)
	}
}

func TestDriver_MismatchedAckIgnored(t *testing.T) {
	d, _, _ := newTestDriver()
	if err := d.SendCommand(&ubx.Frame{Class: ubx.ClassCFG, ID: ubx.MsgCfgRate, Payload: make([]byte, 6)}); err != nil {
		t.Fatal(err)
	}

	d.Receive(ackFrame(ubx.ClassCFG, ubx.MsgCfgMsg))
	d.Receive(nakFrame(ubx.ClassNAV, ubx.MsgCfgRate))

	if s := d.CommandState(); s != CommandWaiting {
		t.Errorf("foreign ACKs should be ignored, state %v", s)
	}
}

func TestDriver_NakRejects(t *testing.T) {
	d, _, _ := newTestDriver()
	if err := d.SendCommand(ubx.NewCfgRate(100, 1, 0)); err != nil {
		t.Fatal(err)
	}
	d.Receive(nakFrame(ubx.ClassCFG, ubx.MsgCfgRate))

	if s := d.CommandState(); s != CommandRejected {
		t.Errorf("expected rejected, got %v", s)
	}
	if !errors.Is(d.CommandState().Err(), ErrCommandRejected) {
		t.Error("rejected state should map to ErrCommandRejected")
	}
}

func TestDriver_CommandConflict(t *testing.T) {
	d, buf, clock := newTestDriver()

	if err := d.SendCommand(ubx.NewCfgRate(100, 1, 0)); err != nil {
		t.Fatal(err)
	}
	deadline := d.tracker.Deadline()

	clock.advance(200 * time.Millisecond)
	err := d.SendCommand(ubx.NewCfgNav5(ubx.DynModelSea, ubx.FixModeAuto))
	if !errors.Is(err, ErrCommandPending) {
		t.Fatalf("expected ErrCommandPending, got %v", err)
	}
	if err := d.Poll(ubx.ClassMON, ubx.MsgMonVer); !errors.Is(err, ErrCommandPending) {
		t.Fatalf("expected ErrCommandPending for poll, got %v", err)
	}

	if got := len(written(t, buf)); got != 1 {
		t.Errorf("rejected sends must not write, %d frames written", got)
	}
	if !d.tracker.Deadline().Equal(deadline) {
		t.Error("rejected send changed the waiting command's deadline")
	}
	if class, id, waiting := d.PendingCommand(); !waiting || class != ubx.ClassCFG || id != ubx.MsgCfgRate {
		t.Errorf("pending = 0x%02X 0x%02X %v", class, id, waiting)
	}

	// The first command still resolves normally
	d.Receive(ackFrame(ubx.ClassCFG, ubx.MsgCfgRate))
	if s := d.CommandState(); s != CommandAcknowledged {
		t.Errorf("expected acknowledged, got %v", s)
	}

	// A resolved slot accepts a new command
	if err := d.SendCommand(ubx.NewCfgNav5(ubx.DynModelSea, ubx.FixModeAuto)); err != nil {
		t.Errorf("send after resolution failed: %v", err)
	}
}

func TestDriver_CommandTimeout(t *testing.T) {
	d, _, clock := newTestDriver()
	if err := d.SendCommand(ubx.NewCfgRate(100, 1, 0)); err != nil {
		t.Fatal(err)
	}

	clock.advance(CommandTimeout - time.Millisecond)
	d.Update()
	if s := d.CommandState(); s != CommandWaiting {
		t.Fatalf("expected waiting before deadline, got %v", s)
	}

	clock.advance(time.Millisecond)
	d.Update()
	if s := d.CommandState(); s != CommandTimedOut {
		t.Fatalf("expected timed out, got %v", s)
	}
	if n := d.Statistics().Timeouts; n != 1 {
		t.Errorf("expected 1 timeout counted, got %d", n)
	}

	// A late ACK changes nothing
	d.Receive(ackFrame(ubx.ClassCFG, ubx.MsgCfgRate))
	if s := d.CommandState(); s != CommandTimedOut {
		t.Errorf("late ACK changed state to %v", s)
	}
}

func TestDriver_PollResolvedByResponse(t *testing.T) {
	d, buf, _ := newTestDriver()
	if err := d.Poll(ubx.ClassCFG, ubx.MsgCfgRate); err != nil {
		t.Fatal(err)
	}
	frames := written(t, buf)
	if len(frames) != 1 || !frames[0].Is(ubx.ClassCFG, ubx.MsgCfgRate) || frames[0].Length() != 0 {
		t.Fatalf("unexpected poll %+v", frames)
	}

	// An ACK does not answer a poll
	d.Receive(ackFrame(ubx.ClassCFG, ubx.MsgCfgRate))
	if s := d.CommandState(); s != CommandWaiting {
		t.Fatalf("ACK resolved a poll: %v", s)
	}

	d.Receive(ubx.AppendFrame(nil, ubx.ClassCFG, ubx.MsgCfgRate, []byte{100, 0, 1, 0, 0, 0}))
	if s := d.CommandState(); s != CommandAcknowledged {
		t.Errorf("expected acknowledged, got %v", s)
	}
}

func TestDriver_PollRejectedByNak(t *testing.T) {
	d, _, _ := newTestDriver()
	if err := d.Poll(ubx.ClassMON, ubx.MsgMonGNSS); err != nil {
		t.Fatal(err)
	}
	d.Receive(nakFrame(ubx.ClassMON, ubx.MsgMonGNSS))
	if s := d.CommandState(); s != CommandRejected {
		t.Errorf("expected rejected, got %v", s)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("port closed") }

func TestDriver_WriteFailure(t *testing.T) {
	d := New(failingWriter{}, WithCapabilityPolling(false))

	if err := d.SendCommand(ubx.NewCfgRate(100, 1, 0)); err == nil {
		t.Fatal("expected write error")
	}
	if s := d.CommandState(); s != CommandIdle {
		t.Errorf("failed write left slot %v", s)
	}

	if err := d.ApplyConfig(ubx.LayerRAM, []ubx.KeyValue{{Key: ubx.KeyNavSpgDynModel, Value: 8}}); err != nil {
		t.Fatalf("ApplyConfig failed: %v", err)
	}
	r := d.ConfigResult()
	if r.Active || r.Err == nil || r.Succeeded != 0 {
		t.Errorf("expected aborted job, got %+v", r)
	}
}

func TestDriver_SendRaw(t *testing.T) {
	d, buf, _ := newTestDriver()

	if err := d.SendRaw([]byte{0xB5, 0x62}); !errors.Is(err, ErrCommandTooShort) {
		t.Errorf("expected ErrCommandTooShort, got %v", err)
	}

	wire := ubx.AppendFrame(nil, ubx.ClassCFG, ubx.MsgCfgRate, []byte{100, 0, 1, 0, 0, 0})
	bad := append([]byte(nil), wire...)
	bad[len(bad)-1] ^= 0xFF
	if err := d.SendRaw(bad); !errors.Is(err, ubx.ErrChecksumMismatch) {
		t.Errorf("expected checksum error, got %v", err)
	}

	if err := d.SendRaw(wire); err != nil {
		t.Fatalf("SendRaw failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), wire) {
		t.Errorf("wrote % X", buf.Bytes())
	}
}

// ============================================================
// Dispatch Tests
// ============================================================

func TestDriver_NavPVT(t *testing.T) {
	d, _, clock := newTestDriver()
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavPVT, navPVTPayload()))

	nav := d.Navigation()
	if nav.Lat != 476000000 || nav.Lon != -1223000000 {
		t.Errorf("position = %d, %d", nav.Lat, nav.Lon)
	}
	if nav.VelN != 123 || nav.VelE != -200 || nav.VelD != 30 {
		t.Errorf("velocity should be cm/s, got %d/%d/%d", nav.VelN, nav.VelE, nav.VelD)
	}
	if nav.GroundSpeed != 500 || nav.SpeedAcc != 40 {
		t.Errorf("ground speed %d, sAcc %d", nav.GroundSpeed, nav.SpeedAcc)
	}
	if nav.FixType != ubx.Fix3D || !nav.FixValid || nav.NumSV != 14 || nav.PDOP != 125 {
		t.Errorf("fix = %v valid=%v sv=%d pdop=%d", nav.FixType, nav.FixValid, nav.NumSV, nav.PDOP)
	}
	ts, ok := nav.Time()
	if !ok || !ts.Equal(time.Date(2025, 6, 21, 12, 30, 15, 0, time.UTC)) {
		t.Errorf("time = %v %v", ts, ok)
	}
	if nav.Sources != SourcePVT || !nav.UpdatedAt.Equal(clock.t) {
		t.Errorf("sources=0x%02X updated=%v", nav.Sources, nav.UpdatedAt)
	}
}

// Scenario B: a NAV-PVT with the wrong length is dropped without touching
// the snapshot
func TestDriver_WrongLengthPVTDropped(t *testing.T) {
	d, _, clock := newTestDriver()
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavPVT, navPVTPayload()))
	before := d.Navigation()

	clock.advance(time.Second)
	short := navPVTPayload()[:84]
	putI32(short[28:], 0)
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavPVT, short))

	if after := d.Navigation(); after != before {
		t.Errorf("snapshot changed:\nbefore %+v\nafter  %+v", before, after)
	}
	stats := d.Statistics()
	if stats.LengthMismatches != 1 || stats.ValidFrames != 1 {
		t.Errorf("mismatches=%d valid=%d", stats.LengthMismatches, stats.ValidFrames)
	}
}

func TestDriver_NavigationUnion(t *testing.T) {
	d, _, _ := newTestDriver()
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavPosLLH, navPosLLHPayload(515000000, -1000000)))
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavVelNED, navVelNEDPayload()))

	nav := d.Navigation()
	if nav.Lat != 515000000 || nav.Lon != -1000000 || nav.HAcc != 900 {
		t.Errorf("POSLLH fields lost: %+v", nav)
	}
	if nav.VelN != 150 || nav.VelE != -75 || nav.Speed3D != 170 || nav.GroundSpeed != 168 {
		t.Errorf("VELNED fields wrong: %+v", nav)
	}
	if nav.ITOW != 2000 {
		t.Errorf("iTOW should come from the latest message, got %d", nav.ITOW)
	}
	if nav.Sources != SourcePosLLH|SourceVelNED {
		t.Errorf("sources = 0x%02X", nav.Sources)
	}
	if nav.Latitude() != 51.5 {
		t.Errorf("Latitude() = %v", nav.Latitude())
	}
}

func TestDriver_BadChecksumDropped(t *testing.T) {
	d, _, _ := newTestDriver()
	wire := ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavPVT, navPVTPayload())
	wire[len(wire)-2] ^= 0x01
	d.Receive(wire)

	if d.Navigation().Sources != 0 {
		t.Error("frame with bad checksum was applied")
	}
	if d.Statistics().ChecksumErrors != 1 {
		t.Errorf("checksum errors = %d", d.Statistics().ChecksumErrors)
	}

	// The stream recovers on the next frame
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavPVT, navPVTPayload()))
	if d.Navigation().Sources != SourcePVT {
		t.Error("decoder did not recover after a bad frame")
	}
}

func TestDriver_UnknownMessageIgnored(t *testing.T) {
	d, _, _ := newTestDriver()
	d.Receive(ubx.AppendFrame(nil, 0x02, 0x15, []byte{1, 2, 3, 4}))
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, 0x60, []byte{1, 2}))

	if d.Navigation().Sources != 0 {
		t.Error("unknown messages changed the snapshot")
	}
	if n := d.Statistics().UnknownMessages; n != 2 {
		t.Errorf("unknown messages = %d", n)
	}
}

func TestDriver_FrameHandler(t *testing.T) {
	var seen []uint8
	d, _, _ := newTestDriver(WithFrameHandler(func(f *ubx.Frame) {
		seen = append(seen, f.ID)
	}))
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavPVT, navPVTPayload()))
	d.Receive(ubx.AppendFrame(nil, 0x02, 0x15, nil))

	if !bytes.Equal(seen, []uint8{ubx.MsgNavPVT, 0x15}) {
		t.Errorf("handler saw % X", seen)
	}
}

// ============================================================
// Statistics Tests
// ============================================================

func TestDriver_StatisticsFollowDriverClock(t *testing.T) {
	d, _, clock := newTestDriver()
	start := clock.t

	st := d.Statistics()
	if !st.StartTime.Equal(start) {
		t.Fatalf("StartTime = %v, want %v", st.StartTime, start)
	}

	for i := 0; i < 10; i++ {
		d.Receive(ubx.AppendFrame(nil, 0x02, 0x15, nil))
		clock.advance(500 * time.Millisecond)
		d.Update()
	}

	if !st.LastUpdateTime.Equal(start.Add(5 * time.Second)) {
		t.Errorf("LastUpdateTime = %v, want %v", st.LastUpdateTime, start.Add(5*time.Second))
	}
	st.CalculateRates()
	if st.FrameRate != 2 {
		t.Errorf("FrameRate = %v, want 2 on the driver clock", st.FrameRate)
	}
}

func TestDriver_SkippedBytesCountedOnReceive(t *testing.T) {
	d, _, _ := newTestDriver()
	st := d.Statistics()

	noise := []byte("$GPGGA,\r\n")
	d.Receive(noise)
	if st.SkippedBytes != uint64(len(noise)) {
		t.Errorf("SkippedBytes = %d, want %d", st.SkippedBytes, len(noise))
	}
}

// ============================================================
// Signal Store Tests
// ============================================================

func TestSignalStore_Idempotent(t *testing.T) {
	d, _, _ := newTestDriver()
	frame := ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavSig, navSigPayload(12, 5000))

	d.Receive(frame)
	first := d.Signals().AppendSignals(nil)
	d.Receive(frame)
	second := d.Signals().AppendSignals(nil)

	if d.Signals().Count() != 12 || len(second) != len(first) {
		t.Fatalf("count = %d", d.Signals().Count())
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("signal %d changed on replay", i)
		}
	}
}

func TestSignalStore_Boundaries(t *testing.T) {
	d, _, _ := newTestDriver()

	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavSig, navSigPayload(ubx.MaxSignals, 1)))
	s := d.Signals()
	if s.Count() != ubx.MaxSignals {
		t.Fatalf("expected %d signals, got %d", ubx.MaxSignals, s.Count())
	}
	last, ok := s.Signal(ubx.MaxSignals - 1)
	if !ok || last.SvID != ubx.MaxSignals {
		t.Errorf("last signal = %+v %v", last, ok)
	}
	if _, ok := s.Signal(ubx.MaxSignals); ok {
		t.Error("index past capacity returned a record")
	}
	if _, ok := s.Signal(-1); ok {
		t.Error("negative index returned a record")
	}

	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavSig, navSigPayload(0, 2)))
	if s.Count() != 0 {
		t.Errorf("zero-signal report left %d valid records", s.Count())
	}
	if _, ok := s.Signal(0); ok {
		t.Error("stale record returned after zero-signal report")
	}
	if s.Updates() != 2 || s.ITOW() != 2 {
		t.Errorf("updates=%d itow=%d", s.Updates(), s.ITOW())
	}
}

func TestSignalStore_StaleEntriesHidden(t *testing.T) {
	d, _, _ := newTestDriver()
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavSig, navSigPayload(10, 1)))
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavSig, navSigPayload(3, 2)))

	if _, ok := d.Signals().Signal(3); ok {
		t.Error("record beyond the reported count is visible")
	}
	if got := len(d.Signals().AppendSignals(nil)); got != 3 {
		t.Errorf("AppendSignals returned %d records", got)
	}
}

func TestSignalStore_RejectedReportKeepsTable(t *testing.T) {
	d, _, _ := newTestDriver()
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavSig, navSigPayload(5, 1)))

	badVersion := navSigPayload(2, 2)
	badVersion[4] = 1
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavSig, badVersion))

	badLength := navSigPayload(4, 3)[:8+16*3]
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavSig, badLength))

	if d.Signals().Count() != 5 || d.Signals().ITOW() != 1 {
		t.Errorf("rejected reports modified the table: count=%d itow=%d", d.Signals().Count(), d.Signals().ITOW())
	}
	stats := d.Statistics()
	if stats.BadVersions != 1 || stats.LengthMismatches != 1 {
		t.Errorf("badVersions=%d lengthMismatches=%d", stats.BadVersions, stats.LengthMismatches)
	}
}

func TestSatelliteStore_LatestSourceServed(t *testing.T) {
	d, _, _ := newTestDriver()
	sats := d.Satellites()
	if sats.Count() != 0 || sats.Source() != 0 {
		t.Fatal("store should start empty")
	}

	svinfo := make([]byte, 8+12*2)
	svinfo[4] = 2
	svinfo[8+1] = 5     // GPS
	svinfo[8+12+1] = 70 // GLONASS
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavSVInfo, svinfo))

	if sats.Count() != 2 || sats.Source() != ubx.MsgNavSVInfo {
		t.Fatalf("count=%d source=0x%02X", sats.Count(), sats.Source())
	}
	if s, _ := sats.Satellite(1); s.GnssID != ubx.GnssGLONASS {
		t.Errorf("svid 70 mapped to gnss %d", s.GnssID)
	}

	sat := make([]byte, 8+12)
	sat[4] = ubx.NavSatVersion
	sat[5] = 1
	sat[8] = ubx.GnssGalileo
	sat[9] = 11
	d.Receive(ubx.AppendFrame(nil, ubx.ClassNAV, ubx.MsgNavSat, sat))

	if sats.Count() != 1 || sats.Source() != ubx.MsgNavSat {
		t.Fatalf("count=%d source=0x%02X", sats.Count(), sats.Source())
	}
	if s, ok := sats.Satellite(0); !ok || s.GnssID != ubx.GnssGalileo || s.SvID != 11 {
		t.Errorf("satellite = %+v", s)
	}
	if _, ok := sats.Satellite(1); ok {
		t.Error("index past NAV-SAT count returned a record")
	}
}
