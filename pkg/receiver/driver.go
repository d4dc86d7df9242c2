// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package receiver drives a u-blox receiver over a byte stream.
//
// A Driver owns all receiver state. It has no goroutines of its own: the
// caller feeds received bytes with Receive/ReceiveByte and calls Update once
// per scheduling tick to expire commands, advance configuration jobs and
// run capability polling. A Driver is not safe for concurrent use.
package receiver

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/Thermoquad/gnomon/pkg/ubx"
)

// CommandTimeout is how long a sent command waits for its ACK or response
const CommandTimeout = 500 * time.Millisecond

type commandOwner int

const (
	ownerNone commandOwner = iota
	ownerConfig
	ownerCapability
	ownerUser
)

// Option configures a Driver
type Option func(*Driver)

// WithClock replaces time.Now as the driver's time source
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.now = now
	}
}

// WithLogger sets the logger for command and capability events
func WithLogger(l *log.Logger) Option {
	return func(d *Driver) {
		d.log = l
	}
}

// WithFrameHandler registers fn to see every valid frame before it is
// dispatched. The frame and its payload are only valid during the call.
func WithFrameHandler(fn func(*ubx.Frame)) Option {
	return func(d *Driver) {
		d.onFrame = fn
	}
}

// WithCapabilityPolling enables or disables the periodic MON-VER/MON-GNSS
// polls. Enabled by default.
func WithCapabilityPolling(enabled bool) Option {
	return func(d *Driver) {
		d.neg.enabled = enabled
	}
}

// Driver is the receiver driver state
type Driver struct {
	w       io.Writer
	now     func() time.Time
	log     *log.Logger
	onFrame func(*ubx.Frame)

	decoder *ubx.Decoder
	stats   *ubx.Statistics
	tracker *Tracker
	owner   commandOwner

	nav        Navigation
	signals    SignalStore
	satellites SatelliteStore
	caps       Capabilities
	neg        negotiator
	capNext    *ubx.Frame
	config     configEngine

	// Decode targets, reused for every frame
	posllh  ubx.NavPosLLH
	status  ubx.NavStatus
	sol     ubx.NavSol
	pvt     ubx.NavPVT
	velned  ubx.NavVelNED
	timeutc ubx.NavTimeUTC
	ack     ubx.Ack
	monVer  ubx.MonVer
	monGNSS ubx.MonGNSS

	txBuf []byte
}

// New creates a driver that writes commands to w
func New(w io.Writer, opts ...Option) *Driver {
	d := &Driver{
		w:       w,
		now:     time.Now,
		log:     log.New(io.Discard, "", 0),
		decoder: ubx.NewDecoder(),
		tracker: NewTracker(CommandTimeout),
		neg: negotiator{
			enabled:  true,
			interval: CapabilityInterval,
		},
		txBuf: make([]byte, 0, ubx.MaxFrameSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.stats = ubx.NewStatistics(d.now())
	return d
}

//////////////////////////////////////////////////////////////
// Input and scheduling
//////////////////////////////////////////////////////////////

// ReceiveByte feeds one received byte to the frame decoder. Complete frames
// are dispatched immediately; malformed ones are counted and dropped.
func (d *Driver) ReceiveByte(b byte) {
	f, err := d.decoder.DecodeByte(b)
	d.stats.SkippedBytes = d.decoder.Skipped()
	if err != nil {
		d.stats.Update(d.now(), nil, err, nil)
		return
	}
	if f != nil {
		d.dispatch(f)
	}
}

// Receive feeds a chunk of received bytes
func (d *Driver) Receive(p []byte) {
	for _, b := range p {
		d.ReceiveByte(b)
	}
}

// Update runs one scheduling tick: command expiry, delivery of command
// results to their owner, then at most one new command.
func (d *Driver) Update() {
	now := d.now()
	d.stats.Advance(now)
	d.settle(now)
	d.schedule(now)
}

// settle hands a resolved command to whoever sent it
func (d *Driver) settle(now time.Time) {
	state := d.tracker.Check(now)
	if !state.Terminal() || d.owner == ownerNone {
		return
	}
	owner := d.owner
	d.owner = ownerNone

	class, id := d.tracker.Command()
	name := ubx.FormatMessageType(class, id)
	switch state {
	case CommandRejected:
		d.log.Printf("%s rejected by receiver", name)
	case CommandTimedOut:
		d.stats.RecordTimeout()
		d.log.Printf("%s timed out after %v", name, CommandTimeout)
	}

	switch owner {
	case ownerConfig:
		d.config.resolve(state)
		if r := d.config.result; !r.Active {
			d.log.Printf("configuration %s", r)
		}
	case ownerCapability:
		d.capNext = d.neg.resolve(state, &d.caps)
	}
}

// schedule sends the next queued command if the slot is free.
// Configuration jobs take precedence over capability polling.
func (d *Driver) schedule(now time.Time) {
	if d.tracker.State() == CommandWaiting {
		return
	}

	if f := d.config.pending(); f != nil {
		if err := d.send(f, false, ownerConfig); err != nil {
			d.config.fail(err)
			d.log.Printf("configuration %s", d.config.result)
			return
		}
		d.config.sent()
		return
	}

	if f := d.capNext; f != nil {
		d.capNext = nil
		if err := d.send(f, true, ownerCapability); err != nil {
			d.neg.abort()
			d.log.Printf("capability poll: %v", err)
		}
		return
	}

	if d.neg.due(now) {
		d.neg.started = true
		d.neg.lastStart = now
		if err := d.send(d.neg.first(&d.caps), true, ownerCapability); err != nil {
			d.neg.abort()
			d.log.Printf("capability poll: %v", err)
		}
	}
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

// send writes f and puts it in the command slot
func (d *Driver) send(f *ubx.Frame, poll bool, owner commandOwner) error {
	now := d.now()

	// A result nobody has collected yet goes to its owner before the slot
	// is reused
	d.settle(now)
	if d.tracker.State() == CommandWaiting {
		return ErrCommandPending
	}

	d.txBuf = f.AppendWire(d.txBuf[:0])
	if _, err := d.w.Write(d.txBuf); err != nil {
		return fmt.Errorf("failed to write %s: %w", ubx.FormatMessageType(f.Class, f.ID), err)
	}

	// Cannot fail: the slot was checked above
	_ = d.tracker.Begin(f.Class, f.ID, poll, now)
	d.owner = owner
	return nil
}

// SendCommand sends a command that the receiver answers with ACK or NAK.
// Returns ErrCommandPending while another command is waiting.
func (d *Driver) SendCommand(f *ubx.Frame) error {
	return d.send(f, false, ownerUser)
}

// SendRaw validates a complete wire frame and sends it as a command
func (d *Driver) SendRaw(wire []byte) error {
	if len(wire) < ubx.FrameOverhead {
		return ErrCommandTooShort
	}
	f, err := ubx.DecodeFrame(wire)
	if err != nil {
		return err
	}
	return d.SendCommand(f)
}

// Poll requests class/id from the receiver. The command resolves when the
// receiver sends that message back.
func (d *Driver) Poll(class, id uint8) error {
	return d.send(ubx.NewPollFrame(class, id), true, ownerUser)
}

// CommandState returns the state of the command slot
func (d *Driver) CommandState() CommandState {
	return d.tracker.Check(d.now())
}

// PendingCommand returns the class/id in the slot and whether it is waiting
func (d *Driver) PendingCommand() (class, id uint8, waiting bool) {
	class, id = d.tracker.Command()
	return class, id, d.tracker.Check(d.now()) == CommandWaiting
}

// ApplyConfig queues a CFG-VALSET batch. The header format follows the
// receiver generation learned from MON-VER. Frames are sent one at a time
// from Update; progress is reported by ConfigResult.
func (d *Driver) ApplyConfig(layers uint8, entries []ubx.KeyValue) error {
	if d.config.active() {
		return ErrConfigBusy
	}
	frames, err := buildValsetFrames(d.caps.HWVersion, layers, entries)
	if err != nil {
		return err
	}
	return d.ApplyFrames(frames)
}

// ApplyFrames queues ACKed commands for strictly sequential sending. The
// first rejection or timeout abandons the rest.
func (d *Driver) ApplyFrames(frames []*ubx.Frame) error {
	if err := d.config.load(frames); err != nil {
		return err
	}
	d.schedule(d.now())
	return nil
}

// ConfigResult returns the progress of the current or last configuration job
func (d *Driver) ConfigResult() ConfigResult {
	return d.config.result
}

//////////////////////////////////////////////////////////////
// Accessors
//////////////////////////////////////////////////////////////

// Navigation returns a copy of the navigation snapshot
func (d *Driver) Navigation() Navigation {
	return d.nav
}

// Signals returns the NAV-SIG signal table
func (d *Driver) Signals() *SignalStore {
	return &d.signals
}

// Satellites returns the NAV-SAT / NAV-SVINFO satellite table
func (d *Driver) Satellites() *SatelliteStore {
	return &d.satellites
}

// Capabilities returns a copy of the negotiated capabilities
func (d *Driver) Capabilities() Capabilities {
	return d.caps
}

// HWVersion returns the receiver generation, unknown until MON-VER arrives
func (d *Driver) HWVersion() ubx.HWVersion {
	return d.caps.HWVersion
}

// GnssSupported reports whether the hardware supports c
func (d *Driver) GnssSupported(c Constellation) bool {
	return d.caps.Gnss(c).Supported
}

// GnssDefault reports whether c is enabled by factory default
func (d *Driver) GnssDefault(c Constellation) bool {
	return d.caps.Gnss(c).Default
}

// GnssEnabled reports whether c is currently enabled
func (d *Driver) GnssEnabled(c Constellation) bool {
	return d.caps.Gnss(c).Enabled
}

// MaxGnss returns the maximum number of concurrent GNSS, 0 until known
func (d *Driver) MaxGnss() uint8 {
	return d.caps.MaxGnss
}

// CapabilitiesUpdated returns the time of the last MON-GNSS report
func (d *Driver) CapabilitiesUpdated() time.Time {
	return d.caps.LastUpdate
}

// Version predicates. All are false while the version is unknown.

func (d *Driver) VersionLT(major, minor uint8) bool  { return d.caps.VersionLT(major, minor) }
func (d *Driver) VersionLTE(major, minor uint8) bool { return d.caps.VersionLTE(major, minor) }
func (d *Driver) VersionEQ(major, minor uint8) bool  { return d.caps.VersionEQ(major, minor) }
func (d *Driver) VersionGTE(major, minor uint8) bool { return d.caps.VersionGTE(major, minor) }
func (d *Driver) VersionGT(major, minor uint8) bool  { return d.caps.VersionGT(major, minor) }

// Statistics returns the frame statistics
func (d *Driver) Statistics() *ubx.Statistics {
	return d.stats
}
