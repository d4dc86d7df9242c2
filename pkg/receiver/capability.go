// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package receiver

import (
	"time"

	"github.com/Thermoquad/gnomon/pkg/ubx"
)

// Capability polling policy
const (
	CapabilityInterval = 5000 * time.Millisecond
	VersionRetryBudget = 3
)

// Constellation selects a GNSS in capability queries
type Constellation int

// Constellations reported by MON-GNSS
const (
	GPS Constellation = iota
	GLONASS
	BeiDou
	Galileo
)

// String returns the constellation name
func (c Constellation) String() string {
	switch c {
	case GPS:
		return "GPS"
	case GLONASS:
		return "GLONASS"
	case BeiDou:
		return "BeiDou"
	case Galileo:
		return "Galileo"
	default:
		return "unknown"
	}
}

func (c Constellation) monGnssBit() uint8 {
	switch c {
	case GPS:
		return ubx.MonGnssGPS
	case GLONASS:
		return ubx.MonGnssGLONASS
	case BeiDou:
		return ubx.MonGnssBeiDou
	case Galileo:
		return ubx.MonGnssGalileo
	}
	return 0
}

// GnssState holds the three independent MON-GNSS flags of a constellation
type GnssState struct {
	Supported bool `json:"supported"`
	Default   bool `json:"default"`
	Enabled   bool `json:"enabled"`
}

// Capabilities is what the receiver has told us about itself
type Capabilities struct {
	Software     string        `json:"software,omitempty"`
	Hardware     string        `json:"hardware,omitempty"`
	HWVersion    ubx.HWVersion `json:"hw_version"`
	Version      ubx.Version   `json:"version"`
	VersionKnown bool          `json:"version_known"`

	GLONASS GnssState `json:"glonass"`
	BeiDou  GnssState `json:"beidou"`
	Galileo GnssState `json:"galileo"`
	MaxGnss uint8     `json:"max_gnss"`

	// LastUpdate is the time of the last MON-GNSS report, zero before one
	LastUpdate time.Time `json:"last_update"`
}

// Gnss returns the flags of c. GPS is always present.
func (c *Capabilities) Gnss(con Constellation) GnssState {
	switch con {
	case GLONASS:
		return c.GLONASS
	case BeiDou:
		return c.BeiDou
	case Galileo:
		return c.Galileo
	}
	return GnssState{Supported: true, Default: true, Enabled: true}
}

func (c *Capabilities) applyMonVer(m *ubx.MonVer) {
	c.Software = m.Software
	c.Hardware = m.Hardware
	c.HWVersion = m.HWVersion()
	c.Version, c.VersionKnown = m.ProtocolVersion()
}

func (c *Capabilities) applyMonGNSS(m *ubx.MonGNSS, now time.Time) {
	state := func(con Constellation) GnssState {
		bit := con.monGnssBit()
		return GnssState{
			Supported: m.Supported&bit != 0,
			Default:   m.Default&bit != 0,
			Enabled:   m.Enabled&bit != 0,
		}
	}
	c.GLONASS = state(GLONASS)
	c.BeiDou = state(BeiDou)
	c.Galileo = state(Galileo)
	c.MaxGnss = m.MaxConcurrent
	c.LastUpdate = now
}

// compare returns the sign of version - (major, minor), and false while the
// version is unknown.
func (c *Capabilities) compare(major, minor uint8) (int, bool) {
	if !c.VersionKnown {
		return 0, false
	}
	return c.Version.Compare(ubx.Version{Major: major, Minor: minor}), true
}

// VersionLT reports whether the version is known and below major.minor
func (c *Capabilities) VersionLT(major, minor uint8) bool {
	r, ok := c.compare(major, minor)
	return ok && r < 0
}

// VersionLTE reports whether the version is known and at most major.minor
func (c *Capabilities) VersionLTE(major, minor uint8) bool {
	r, ok := c.compare(major, minor)
	return ok && r <= 0
}

// VersionEQ reports whether the version is known and equals major.minor
func (c *Capabilities) VersionEQ(major, minor uint8) bool {
	r, ok := c.compare(major, minor)
	return ok && r == 0
}

// VersionGTE reports whether the version is known and at least major.minor
func (c *Capabilities) VersionGTE(major, minor uint8) bool {
	r, ok := c.compare(major, minor)
	return ok && r >= 0
}

// VersionGT reports whether the version is known and above major.minor
func (c *Capabilities) VersionGT(major, minor uint8) bool {
	r, ok := c.compare(major, minor)
	return ok && r > 0
}

// negotiator steps
const (
	negIdle = iota
	negVersion
	negGnss
)

// negotiator schedules the MON-VER / MON-GNSS poll pair
type negotiator struct {
	enabled      bool
	interval     time.Duration
	step         int
	started      bool
	lastStart    time.Time
	verFailures  int
	skippedVer   bool // the current round opened with MON-GNSS
	polls        uint64
	pollFailures uint64
}

// due reports whether a new poll round should start
func (n *negotiator) due(now time.Time) bool {
	if !n.enabled || n.step != negIdle {
		return false
	}
	return !n.started || now.Sub(n.lastStart) >= n.interval
}

// first returns the poll that opens a round. Once MON-VER has failed
// VersionRetryBudget times in a row without a usable version, rounds go
// straight to MON-GNSS until one of them is answered; the budget is then
// refilled so a receiver that was silent gets asked for its version again.
func (n *negotiator) first(caps *Capabilities) *ubx.Frame {
	if !caps.VersionKnown && n.verFailures >= VersionRetryBudget {
		n.step = negGnss
		n.skippedVer = true
		return ubx.NewMonGNSSPoll()
	}
	n.step = negVersion
	n.skippedVer = false
	return ubx.NewMonVerPoll()
}

// resolve handles the outcome of the negotiator's poll and returns the next
// poll to send in this round, or nil when the round is over.
func (n *negotiator) resolve(state CommandState, caps *Capabilities) *ubx.Frame {
	n.polls++
	if state != CommandAcknowledged {
		n.pollFailures++
	}

	if n.step == negVersion {
		if caps.VersionKnown {
			n.verFailures = 0
		} else {
			n.verFailures++
		}
		if state == CommandAcknowledged {
			n.step = negGnss
			return ubx.NewMonGNSSPoll()
		}
	} else if n.skippedVer && state == CommandAcknowledged {
		n.verFailures = 0
	}
	n.step = negIdle
	return nil
}

// abort ends the round without counting an outcome
func (n *negotiator) abort() {
	n.step = negIdle
}
