// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package receiver

import (
	"errors"
	"fmt"

	"github.com/Thermoquad/gnomon/pkg/ubx"
)

// ErrInvalidSettings is returned when Settings fail validation
var ErrInvalidSettings = errors.New("invalid receiver settings")

// Measurement rate limits
const (
	MinRateMs = 25
	MaxRateMs = 10000
)

// Output rates, in navigation solutions per message
const (
	rateEverySolution = 1
	rateTimeUTC       = 10
	rateSatellites    = 5
	timeRefUTC        = 0
	numTrkChAll       = 0xFF
)

// Settings is the desired receiver setup
type Settings struct {
	RateMs   uint16
	DynModel ubx.DynModel
	FixMode  ubx.FixMode

	SBAS     bool
	SBASMask uint64 // legacy receivers only; ubx.SBASAll for automatic

	Galileo bool
	BeiDou  bool
	GLONASS bool

	UsePVT     bool // NAV-PVT instead of POSLLH/STATUS/SOL/VELNED/TIMEUTC
	Satellites bool // NAV-SAT, or NAV-SVINFO on older receivers
	Signals    bool // NAV-SIG

	Layers uint8 // CFG-VALSET target layers
}

// DefaultSettings returns a 10 Hz airborne setup with every supported
// constellation and SBAS enabled
func DefaultSettings() Settings {
	return Settings{
		RateMs:     100,
		DynModel:   ubx.DynModelAirborne4G,
		FixMode:    ubx.FixModeAuto,
		SBAS:       true,
		SBASMask:   ubx.SBASAll,
		Galileo:    true,
		BeiDou:     true,
		GLONASS:    true,
		UsePVT:     true,
		Satellites: true,
		Signals:    true,
		Layers:     ubx.LayerRAM,
	}
}

// Validate checks that the settings can be expressed to a receiver
func (s *Settings) Validate() error {
	if s.RateMs < MinRateMs || s.RateMs > MaxRateMs {
		return fmt.Errorf("%w: rate %d ms (must be %d-%d)", ErrInvalidSettings, s.RateMs, MinRateMs, MaxRateMs)
	}
	if s.DynModel == 1 || s.DynModel > ubx.DynModelEScooter {
		return fmt.Errorf("%w: dynamic model %d", ErrInvalidSettings, s.DynModel)
	}
	if s.FixMode < ubx.FixMode2DOnly || s.FixMode > ubx.FixModeAuto {
		return fmt.Errorf("%w: fix mode %d", ErrInvalidSettings, s.FixMode)
	}
	if s.Layers == 0 || s.Layers&^(ubx.LayerRAM|ubx.LayerBBR|ubx.LayerFlash) != 0 {
		return fmt.Errorf("%w: layers 0x%02X", ErrInvalidSettings, s.Layers)
	}
	return nil
}

// Plan is the command sequence that applies Settings to one receiver.
// Exactly one of Valset and Frames is set.
type Plan struct {
	Layers uint8
	Valset []ubx.KeyValue
	Frames []*ubx.Frame
}

// PlanSetup turns settings into commands for the receiver described by
// caps. u-blox 9 and newer get a CFG-VALSET batch, older receivers legacy
// CFG frames. A constellation the receiver does not report as supported is
// never enabled.
func PlanSetup(caps *Capabilities, s Settings) Plan {
	if caps.HWVersion >= ubx.HWVersionUblox9 {
		return Plan{Layers: s.Layers, Valset: planValset(caps, s)}
	}
	return Plan{Frames: planLegacy(caps, s)}
}

// Configure plans s for the connected receiver and queues it
func (d *Driver) Configure(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	p := PlanSetup(&d.caps, s)
	if len(p.Valset) > 0 {
		return d.ApplyConfig(p.Layers, p.Valset)
	}
	return d.ApplyFrames(p.Frames)
}

func flag(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

func planValset(caps *Capabilities, s Settings) []ubx.KeyValue {
	kv := []ubx.KeyValue{
		{Key: ubx.KeyMsgOutNmeaGGAUART1, Value: 0},
		{Key: ubx.KeyMsgOutNmeaGLLUART1, Value: 0},
		{Key: ubx.KeyMsgOutNmeaGSAUART1, Value: 0},
		{Key: ubx.KeyMsgOutNmeaRMCUART1, Value: 0},
		{Key: ubx.KeyMsgOutNmeaVTGUART1, Value: 0},

		{Key: ubx.KeyNavSpgDynModel, Value: uint16(s.DynModel)},
		{Key: ubx.KeyNavSpgFixMode, Value: uint16(s.FixMode)},

		{Key: ubx.KeyRateMeas, Value: s.RateMs},
		{Key: ubx.KeyRateNav, Value: 1},
		{Key: ubx.KeyRateTimeRef, Value: timeRefUTC},
	}

	legacy := uint16(rateEverySolution)
	if s.UsePVT {
		legacy = 0
	}
	kv = append(kv,
		ubx.KeyValue{Key: ubx.KeyMsgOutNavPVTUART1, Value: flag(s.UsePVT) * rateEverySolution},
		ubx.KeyValue{Key: ubx.KeyMsgOutNavPosLLHUART1, Value: legacy},
		ubx.KeyValue{Key: ubx.KeyMsgOutNavStatusUART1, Value: legacy},
		ubx.KeyValue{Key: ubx.KeyMsgOutNavVelNEDUART1, Value: legacy},
		ubx.KeyValue{Key: ubx.KeyMsgOutNavTimeUTCUART1, Value: legacy * rateTimeUTC},
		ubx.KeyValue{Key: ubx.KeyMsgOutNavSatUART1, Value: flag(s.Satellites) * rateSatellites},
	)
	// NAV-SIG first appeared in protocol 27
	if caps.VersionGTE(27, 0) {
		kv = append(kv, ubx.KeyValue{Key: ubx.KeyMsgOutNavSigUART1, Value: flag(s.Signals) * rateSatellites})
	}

	kv = append(kv,
		ubx.KeyValue{Key: ubx.KeySignalSBASEnable, Value: flag(s.SBAS)},
		ubx.KeyValue{Key: ubx.KeySignalSBASL1CAEnable, Value: flag(s.SBAS)},
		ubx.KeyValue{Key: ubx.KeySignalQZSSEnable, Value: 1},
		ubx.KeyValue{Key: ubx.KeySignalQZSSL1CAEnable, Value: 1},
		ubx.KeyValue{Key: ubx.KeySignalQZSSL1SEnable, Value: flag(s.SBAS)},
	)

	if caps.Galileo.Supported {
		kv = append(kv,
			ubx.KeyValue{Key: ubx.KeySignalGalEnable, Value: flag(s.Galileo)},
			ubx.KeyValue{Key: ubx.KeySignalGalE1Enable, Value: flag(s.Galileo)},
		)
	}
	if caps.BeiDou.Supported {
		kv = append(kv,
			ubx.KeyValue{Key: ubx.KeySignalBDSEnable, Value: flag(s.BeiDou)},
			ubx.KeyValue{Key: ubx.KeySignalBDSB1Enable, Value: flag(s.BeiDou)},
		)
		if caps.HWVersion >= ubx.HWVersionUblox10 {
			kv = append(kv, ubx.KeyValue{Key: ubx.KeySignalBDSB1CEnable, Value: flag(s.BeiDou)})
		}
	}
	if caps.GLONASS.Supported {
		kv = append(kv,
			ubx.KeyValue{Key: ubx.KeySignalGLOEnable, Value: flag(s.GLONASS)},
			ubx.KeyValue{Key: ubx.KeySignalGLOL1Enable, Value: flag(s.GLONASS)},
		)
	}
	return kv
}

func planLegacy(caps *Capabilities, s Settings) []*ubx.Frame {
	var frames []*ubx.Frame
	for _, id := range []uint8{ubx.MsgNmeaGGA, ubx.MsgNmeaGLL, ubx.MsgNmeaGSA, ubx.MsgNmeaGSV, ubx.MsgNmeaRMC, ubx.MsgNmeaVTG} {
		frames = append(frames, ubx.NewCfgMsg(ubx.ClassNMEA, id, 0))
	}

	frames = append(frames,
		ubx.NewCfgRate(s.RateMs, 1, timeRefUTC),
		ubx.NewCfgNav5(s.DynModel, s.FixMode),
	)

	// NAV-PVT needs u-blox 7 or newer
	if s.UsePVT && caps.HWVersion >= ubx.HWVersionUblox7 {
		frames = append(frames,
			ubx.NewCfgMsg(ubx.ClassNAV, ubx.MsgNavPVT, rateEverySolution),
			ubx.NewCfgMsg(ubx.ClassNAV, ubx.MsgNavPosLLH, 0),
			ubx.NewCfgMsg(ubx.ClassNAV, ubx.MsgNavStatus, 0),
			ubx.NewCfgMsg(ubx.ClassNAV, ubx.MsgNavSol, 0),
			ubx.NewCfgMsg(ubx.ClassNAV, ubx.MsgNavVelNED, 0),
			ubx.NewCfgMsg(ubx.ClassNAV, ubx.MsgNavTimeUTC, 0),
		)
	} else {
		frames = append(frames,
			ubx.NewCfgMsg(ubx.ClassNAV, ubx.MsgNavPosLLH, rateEverySolution),
			ubx.NewCfgMsg(ubx.ClassNAV, ubx.MsgNavStatus, rateEverySolution),
			ubx.NewCfgMsg(ubx.ClassNAV, ubx.MsgNavSol, rateEverySolution),
			ubx.NewCfgMsg(ubx.ClassNAV, ubx.MsgNavVelNED, rateEverySolution),
			ubx.NewCfgMsg(ubx.ClassNAV, ubx.MsgNavTimeUTC, rateTimeUTC),
		)
	}

	// NAV-SAT replaced NAV-SVINFO in protocol 15
	satRate := uint8(flag(s.Satellites) * rateSatellites)
	if caps.VersionGTE(15, 0) {
		frames = append(frames, ubx.NewCfgMsg(ubx.ClassNAV, ubx.MsgNavSat, satRate))
	} else {
		frames = append(frames, ubx.NewCfgMsg(ubx.ClassNAV, ubx.MsgNavSVInfo, satRate))
	}

	frames = append(frames, ubx.NewCfgSBAS(s.SBAS, s.SBASMask))

	// CFG-GNSS needs u-blox 7 or newer
	if caps.HWVersion >= ubx.HWVersionUblox7 {
		blocks := []ubx.GNSSConfig{
			{GnssID: ubx.GnssGPS, ResTrkCh: 8, MaxTrkCh: 16, Enabled: true, SigCfgMask: 0x01},
			{GnssID: ubx.GnssSBAS, ResTrkCh: 1, MaxTrkCh: 3, Enabled: s.SBAS, SigCfgMask: 0x01},
			{GnssID: ubx.GnssQZSS, ResTrkCh: 0, MaxTrkCh: 3, Enabled: true, SigCfgMask: 0x05},
		}
		if caps.Galileo.Supported {
			blocks = append(blocks, ubx.GNSSConfig{GnssID: ubx.GnssGalileo, ResTrkCh: 4, MaxTrkCh: 8, Enabled: s.Galileo, SigCfgMask: 0x01})
		}
		if caps.BeiDou.Supported {
			blocks = append(blocks, ubx.GNSSConfig{GnssID: ubx.GnssBeiDou, ResTrkCh: 8, MaxTrkCh: 16, Enabled: s.BeiDou, SigCfgMask: 0x01})
		}
		if caps.GLONASS.Supported {
			blocks = append(blocks, ubx.GNSSConfig{GnssID: ubx.GnssGLONASS, ResTrkCh: 8, MaxTrkCh: 14, Enabled: s.GLONASS, SigCfgMask: 0x01})
		}
		frames = append(frames, ubx.NewCfgGNSS(numTrkChAll, blocks))
	}
	return frames
}
