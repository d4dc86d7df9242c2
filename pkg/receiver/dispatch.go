// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package receiver

import (
	"time"

	"github.com/Thermoquad/gnomon/pkg/ubx"
)

// dispatch decodes a valid frame and applies it. A payload that fails to
// decode changes nothing but the statistics. Messages the driver does not
// consume are ignored.
func (d *Driver) dispatch(f *ubx.Frame) {
	now := d.now()
	if d.onFrame != nil {
		d.onFrame(f)
	}

	var err error
	switch f.Class {
	case ubx.ClassNAV:
		err = d.dispatchNav(f, now)
	case ubx.ClassACK:
		err = d.dispatchAck(f)
	case ubx.ClassMON:
		err = d.dispatchMon(f, now)
	}

	if err != nil {
		// Off the hot path: re-decode for a typed anomaly report
		d.stats.Update(now, f, nil, ubx.ValidateFrame(f))
		return
	}
	d.stats.Update(now, f, nil, nil)

	if f.Class != ubx.ClassACK {
		d.tracker.HandleResponse(f.Class, f.ID)
	}
}

func (d *Driver) dispatchNav(f *ubx.Frame, now time.Time) error {
	switch f.ID {
	case ubx.MsgNavPosLLH:
		if err := d.posllh.UnmarshalBinary(f.Payload); err != nil {
			return err
		}
		d.nav.applyPosLLH(&d.posllh, now)
	case ubx.MsgNavStatus:
		if err := d.status.UnmarshalBinary(f.Payload); err != nil {
			return err
		}
		d.nav.applyStatus(&d.status, now)
	case ubx.MsgNavSol:
		if err := d.sol.UnmarshalBinary(f.Payload); err != nil {
			return err
		}
		d.nav.applySol(&d.sol, now)
	case ubx.MsgNavPVT:
		if err := d.pvt.UnmarshalBinary(f.Payload); err != nil {
			return err
		}
		d.nav.applyPVT(&d.pvt, now)
	case ubx.MsgNavVelNED:
		if err := d.velned.UnmarshalBinary(f.Payload); err != nil {
			return err
		}
		d.nav.applyVelNED(&d.velned, now)
	case ubx.MsgNavTimeUTC:
		if err := d.timeutc.UnmarshalBinary(f.Payload); err != nil {
			return err
		}
		d.nav.applyTimeUTC(&d.timeutc, now)
	case ubx.MsgNavSig:
		return d.signals.update(f.Payload, now)
	case ubx.MsgNavSat:
		return d.satellites.updateSat(f.Payload, now)
	case ubx.MsgNavSVInfo:
		return d.satellites.updateSVInfo(f.Payload, now)
	}
	return nil
}

func (d *Driver) dispatchAck(f *ubx.Frame) error {
	if f.ID != ubx.MsgAckAck && f.ID != ubx.MsgAckNak {
		return nil
	}
	d.ack.Acknowledged = f.ID == ubx.MsgAckAck
	if err := d.ack.UnmarshalBinary(f.Payload); err != nil {
		return err
	}
	// An ACK for anything but the waiting command is stale or foreign
	d.tracker.HandleAck(d.ack.Class, d.ack.ID, d.ack.Acknowledged)
	return nil
}

func (d *Driver) dispatchMon(f *ubx.Frame, now time.Time) error {
	switch f.ID {
	case ubx.MsgMonVer:
		if err := d.monVer.UnmarshalBinary(f.Payload); err != nil {
			return err
		}
		d.caps.applyMonVer(&d.monVer)
		if d.caps.VersionKnown {
			d.log.Printf("receiver %s, protocol %s, software %q",
				d.caps.HWVersion, d.caps.Version, d.caps.Software)
		} else {
			d.log.Printf("receiver %s, unable to parse version from %q",
				d.caps.HWVersion, d.caps.Software)
		}
	case ubx.MsgMonGNSS:
		if err := d.monGNSS.UnmarshalBinary(f.Payload); err != nil {
			return err
		}
		d.caps.applyMonGNSS(&d.monGNSS, now)
		d.log.Printf("gnss supported=0x%02X default=0x%02X enabled=0x%02X max=%d",
			d.monGNSS.Supported, d.monGNSS.Default, d.monGNSS.Enabled, d.monGNSS.MaxConcurrent)
	}
	return nil
}
