// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package receiver

import (
	"time"

	"github.com/Thermoquad/gnomon/pkg/ubx"
)

// SignalStore holds the last NAV-SIG report.
//
// Each report replaces the table wholesale. Entries at or past Count are
// stale and never returned.
type SignalStore struct {
	msg       ubx.NavSig
	updatedAt time.Time
	updates   uint64
}

// update decodes a NAV-SIG payload straight into the table. The decoder
// validates everything before writing, so a rejected payload leaves the
// previous report intact.
func (s *SignalStore) update(payload []byte, now time.Time) error {
	if err := s.msg.UnmarshalBinary(payload); err != nil {
		return err
	}
	s.updatedAt = now
	s.updates++
	return nil
}

// Count returns the number of valid signal records
func (s *SignalStore) Count() int {
	return s.msg.Count
}

// Signal returns record i, or false when i is outside the valid range
func (s *SignalStore) Signal(i int) (ubx.SignalInfo, bool) {
	if i < 0 || i >= s.msg.Count {
		return ubx.SignalInfo{}, false
	}
	return s.msg.Signals[i], true
}

// AppendSignals appends the valid records to dst
func (s *SignalStore) AppendSignals(dst []ubx.SignalInfo) []ubx.SignalInfo {
	return append(dst, s.msg.Signals[:s.msg.Count]...)
}

// ITOW returns the time of week of the last report
func (s *SignalStore) ITOW() uint32 {
	return s.msg.ITOW
}

// UpdatedAt returns when the last report was applied
func (s *SignalStore) UpdatedAt() time.Time {
	return s.updatedAt
}

// Updates returns how many reports have been applied
func (s *SignalStore) Updates() uint64 {
	return s.updates
}

// SatelliteStore holds the last per-satellite report, from NAV-SAT on
// u-blox 8 and newer or NAV-SVINFO on older receivers. Whichever arrived
// last is the one served.
type SatelliteStore struct {
	sat       ubx.NavSat
	svinfo    ubx.NavSVInfo
	source    uint8
	updatedAt time.Time
}

func (s *SatelliteStore) updateSat(payload []byte, now time.Time) error {
	if err := s.sat.UnmarshalBinary(payload); err != nil {
		return err
	}
	s.source = ubx.MsgNavSat
	s.updatedAt = now
	return nil
}

func (s *SatelliteStore) updateSVInfo(payload []byte, now time.Time) error {
	if err := s.svinfo.UnmarshalBinary(payload); err != nil {
		return err
	}
	s.source = ubx.MsgNavSVInfo
	s.updatedAt = now
	return nil
}

func (s *SatelliteStore) table() (*[ubx.MaxSignals]ubx.SatelliteInfo, int) {
	switch s.source {
	case ubx.MsgNavSat:
		return &s.sat.Satellites, s.sat.Count
	case ubx.MsgNavSVInfo:
		return &s.svinfo.Satellites, s.svinfo.Count
	}
	return nil, 0
}

// Count returns the number of valid satellite records
func (s *SatelliteStore) Count() int {
	_, n := s.table()
	return n
}

// Satellite returns record i, or false when i is outside the valid range
func (s *SatelliteStore) Satellite(i int) (ubx.SatelliteInfo, bool) {
	t, n := s.table()
	if i < 0 || i >= n {
		return ubx.SatelliteInfo{}, false
	}
	return t[i], true
}

// AppendSatellites appends the valid records to dst
func (s *SatelliteStore) AppendSatellites(dst []ubx.SatelliteInfo) []ubx.SatelliteInfo {
	t, n := s.table()
	if t == nil {
		return dst
	}
	return append(dst, t[:n]...)
}

// Source returns the message id of the report being served, 0 before any
func (s *SatelliteStore) Source() uint8 {
	return s.source
}

// UpdatedAt returns when the last report was applied
func (s *SatelliteStore) UpdatedAt() time.Time {
	return s.updatedAt
}
