// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package receiver

import (
	"math"
	"time"

	"github.com/Thermoquad/gnomon/pkg/ubx"
)

// Source bits record which messages have contributed to a Navigation value
const (
	SourcePosLLH = 1 << iota
	SourceStatus
	SourceSol
	SourceVelNED
	SourcePVT
	SourceTimeUTC
)

// Navigation is the latest navigation solution. Each message overwrites
// only the fields it carries; the rest keep their last value.
//
// Velocities are cm/s regardless of the source message.
type Navigation struct {
	ITOW uint32 `json:"itow"`

	Lat             int32  `json:"lat"` // 1e-7 deg
	Lon             int32  `json:"lon"` // 1e-7 deg
	HeightEllipsoid int32  `json:"height_ellipsoid_mm"`
	HeightMSL       int32  `json:"height_msl_mm"`
	HAcc            uint32 `json:"hacc_mm"`
	VAcc            uint32 `json:"vacc_mm"`

	VelN        int32  `json:"vel_n_cms"`
	VelE        int32  `json:"vel_e_cms"`
	VelD        int32  `json:"vel_d_cms"`
	Speed3D     uint32 `json:"speed_3d_cms"`
	GroundSpeed uint32 `json:"ground_speed_cms"`
	Heading     int32  `json:"heading"` // 1e-5 deg
	SpeedAcc    uint32 `json:"sacc_cms"`
	HeadingAcc  uint32 `json:"heading_acc"`

	FixType  ubx.FixType `json:"fix_type"`
	FixValid bool        `json:"fix_valid"`
	NumSV    uint8       `json:"num_sv"`
	PDOP     uint16      `json:"pdop"` // 0.01
	Week     int16       `json:"week"`
	TTFF     uint32      `json:"ttff_ms"`
	Uptime   uint32      `json:"uptime_ms"`

	Year      uint16 `json:"year"`
	Month     uint8  `json:"month"`
	Day       uint8  `json:"day"`
	Hour      uint8  `json:"hour"`
	Min       uint8  `json:"min"`
	Sec       uint8  `json:"sec"`
	Nano      int32  `json:"nano"`
	TimeValid bool   `json:"time_valid"`

	Sources   uint8     `json:"sources"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Time returns the UTC time of the solution, or false when the receiver
// has not reported a valid date and time.
func (n *Navigation) Time() (time.Time, bool) {
	if !n.TimeValid {
		return time.Time{}, false
	}
	return time.Date(int(n.Year), time.Month(n.Month), int(n.Day),
		int(n.Hour), int(n.Min), int(n.Sec), int(n.Nano), time.UTC), true
}

// Latitude returns the latitude in degrees
func (n *Navigation) Latitude() float64 { return float64(n.Lat) / 1e7 }

// Longitude returns the longitude in degrees
func (n *Navigation) Longitude() float64 { return float64(n.Lon) / 1e7 }

func (n *Navigation) applyPosLLH(m *ubx.NavPosLLH, now time.Time) {
	n.ITOW = m.ITOW
	n.Lat = m.Lat
	n.Lon = m.Lon
	n.HeightEllipsoid = m.HeightEllipsoid
	n.HeightMSL = m.HeightMSL
	n.HAcc = m.HAcc
	n.VAcc = m.VAcc
	n.touch(SourcePosLLH, now)
}

func (n *Navigation) applyStatus(m *ubx.NavStatus, now time.Time) {
	n.ITOW = m.ITOW
	n.FixType = m.FixType
	n.FixValid = m.FixValid()
	n.TTFF = m.TTFF
	n.Uptime = m.Uptime
	n.touch(SourceStatus, now)
}

func (n *Navigation) applySol(m *ubx.NavSol, now time.Time) {
	n.ITOW = m.ITOW
	n.Week = m.Week
	n.FixType = m.FixType
	n.FixValid = m.FixValid()
	n.NumSV = m.NumSV
	n.PDOP = m.PDOP
	n.touch(SourceSol, now)
}

func (n *Navigation) applyVelNED(m *ubx.NavVelNED, now time.Time) {
	n.ITOW = m.ITOW
	n.VelN = m.VelN
	n.VelE = m.VelE
	n.VelD = m.VelD
	n.Speed3D = m.Speed
	n.GroundSpeed = m.GroundSpeed
	n.Heading = m.Heading
	n.SpeedAcc = m.SAcc
	n.HeadingAcc = m.HeadingAcc
	n.touch(SourceVelNED, now)
}

func (n *Navigation) applyPVT(m *ubx.NavPVT, now time.Time) {
	n.ITOW = m.ITOW
	n.Lat = m.Lat
	n.Lon = m.Lon
	n.HeightEllipsoid = m.HeightEllipsoid
	n.HeightMSL = m.HeightMSL
	n.HAcc = m.HAcc
	n.VAcc = m.VAcc

	// NAV-PVT reports mm/s
	n.VelN = m.VelN / 10
	n.VelE = m.VelE / 10
	n.VelD = m.VelD / 10
	n.GroundSpeed = uint32(max(m.GroundSpeed, 0) / 10)
	n.Speed3D = uint32(math.Hypot(float64(n.GroundSpeed), float64(n.VelD)))
	n.Heading = m.HeadingMotion
	n.SpeedAcc = m.SAcc / 10
	n.HeadingAcc = m.HeadingAcc

	n.FixType = m.FixType
	n.FixValid = m.FixValid()
	n.NumSV = m.NumSV
	n.PDOP = m.PDOP

	n.setTime(m.Year, m.Month, m.Day, m.Hour, m.Min, m.Sec, m.Nano, m.DateTimeValid())
	n.touch(SourcePVT, now)
}

func (n *Navigation) applyTimeUTC(m *ubx.NavTimeUTC, now time.Time) {
	n.ITOW = m.ITOW
	n.setTime(m.Year, m.Month, m.Day, m.Hour, m.Min, m.Sec, m.Nano, m.DateTimeValid())
	n.touch(SourceTimeUTC, now)
}

func (n *Navigation) setTime(year uint16, month, day, hour, minute, sec uint8, nano int32, valid bool) {
	n.Year = year
	n.Month = month
	n.Day = day
	n.Hour = hour
	n.Min = minute
	n.Sec = sec
	n.Nano = nano
	n.TimeValid = valid
}

func (n *Navigation) touch(source uint8, now time.Time) {
	n.Sources |= source
	n.UpdatedAt = now
}
