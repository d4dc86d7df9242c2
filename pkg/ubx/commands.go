// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ubx

// Command builders create Frames ready for sending. Legacy CFG messages are
// used with receivers that predate CFG-VALSET (u-blox 8 and older).

// CFG-NAV5 parameter mask bits
const (
	Nav5MaskDynModel = 1 << 0
	Nav5MaskMinElev  = 1 << 1
	Nav5MaskFixMode  = 1 << 2
)

// CFG-PRT values
const (
	PortUART1   = 1
	PortMode8N1 = 0x000008D0
	ProtoUBX    = 1 << 0
	ProtoNMEA   = 1 << 1
)

// CFG-SBAS mode and usage bits
const (
	SBASModeEnabled  = 1 << 0
	SBASModeTest     = 1 << 1
	SBASUsageRange   = 1 << 0
	SBASUsageDiffCor = 1 << 1
	SBASUsageInteg   = 1 << 2
)

// CFG-GNSS block flags
const (
	gnssEnable          = 1 << 0
	gnssSigCfgShift     = 16
	cfgGNSSHeaderSize   = 4
	cfgGNSSBlockSize    = 8
	cfgNav5Size         = 36
	cfgPrtSize          = 20
	cfgSBASSize         = 8
	cfgRateSize         = 6
	cfgMsgSize          = 3
	MaxGNSSConfigBlocks = 7
)

// NewPollFrame creates an empty-payload poll request frame.
// The receiver answers with the polled message itself.
func NewPollFrame(class, id uint8) *Frame {
	return &Frame{Class: class, ID: id}
}

// NewMonVerPoll polls the receiver software/hardware version
func NewMonVerPoll() *Frame {
	return NewPollFrame(ClassMON, MsgMonVer)
}

// NewMonGNSSPoll polls the receiver's constellation capabilities
func NewMonGNSSPoll() *Frame {
	return NewPollFrame(ClassMON, MsgMonGNSS)
}

// NewCfgMsg creates a CFG-MSG frame setting the output rate of class/id on
// the current port. rate is in navigation solutions per message; 0 disables.
func NewCfgMsg(class, id, rate uint8) *Frame {
	w := newPayloadWriter(cfgMsgSize)
	w.u1(class)
	w.u1(id)
	w.u1(rate)
	return &Frame{Class: ClassCFG, ID: MsgCfgMsg, Payload: w.bytes()}
}

// NewCfgRate creates a CFG-RATE frame.
// measMs is the measurement period, navCycles the solutions per measurement.
func NewCfgRate(measMs, navCycles, timeRef uint16) *Frame {
	w := newPayloadWriter(cfgRateSize)
	w.u2(measMs)
	w.u2(navCycles)
	w.u2(timeRef)
	return &Frame{Class: ClassCFG, ID: MsgCfgRate, Payload: w.bytes()}
}

// NewCfgNav5 creates a CFG-NAV5 frame that applies only the dynamic model
// and fix mode; all other navigation settings are left untouched by mask.
func NewCfgNav5(model DynModel, mode FixMode) *Frame {
	w := newPayloadWriter(cfgNav5Size)
	w.u2(Nav5MaskDynModel | Nav5MaskFixMode)
	w.u1(uint8(model))
	w.u1(uint8(mode))
	w.zero(cfgNav5Size - 4)
	return &Frame{Class: ClassCFG, ID: MsgCfgNav5, Payload: w.bytes()}
}

// NewCfgSBAS creates a CFG-SBAS frame. scanMask is a combination of the
// SBASPRN constants, or SBASAll for automatic PRN selection.
func NewCfgSBAS(enabled bool, scanMask uint64) *Frame {
	var mode uint8
	if enabled {
		mode = SBASModeEnabled
	}

	w := newPayloadWriter(cfgSBASSize)
	w.u1(mode)
	w.u1(SBASUsageRange | SBASUsageDiffCor | SBASUsageInteg)
	w.u1(3) // max SBAS channels searched
	w.u1(uint8(scanMask >> 32))
	w.u4(uint32(scanMask))
	return &Frame{Class: ClassCFG, ID: MsgCfgSBAS, Payload: w.bytes()}
}

// GNSSConfig is one CFG-GNSS constellation block
type GNSSConfig struct {
	GnssID     uint8
	ResTrkCh   uint8
	MaxTrkCh   uint8
	Enabled    bool
	SigCfgMask uint8
}

// NewCfgGNSS creates a CFG-GNSS frame from up to MaxGNSSConfigBlocks blocks.
// Extra blocks are ignored.
func NewCfgGNSS(numTrkChUse uint8, blocks []GNSSConfig) *Frame {
	if len(blocks) > MaxGNSSConfigBlocks {
		blocks = blocks[:MaxGNSSConfigBlocks]
	}

	w := newPayloadWriter(cfgGNSSHeaderSize + len(blocks)*cfgGNSSBlockSize)
	w.u1(0) // msgVer
	w.u1(0) // numTrkChHw, read-only
	w.u1(numTrkChUse)
	w.u1(uint8(len(blocks)))
	for _, b := range blocks {
		flags := uint32(b.SigCfgMask) << gnssSigCfgShift
		if b.Enabled {
			flags |= gnssEnable
		}
		w.u1(b.GnssID)
		w.u1(b.ResTrkCh)
		w.u1(b.MaxTrkCh)
		w.u1(0)
		w.u4(flags)
	}
	return &Frame{Class: ClassCFG, ID: MsgCfgGNSS, Payload: w.bytes()}
}

// NewCfgPrtUART creates a CFG-PRT frame for UART1 at baud, 8N1, with the
// given input and output protocol masks.
func NewCfgPrtUART(baud uint32, inProto, outProto uint16) *Frame {
	w := newPayloadWriter(cfgPrtSize)
	w.u1(PortUART1)
	w.u1(0)
	w.u2(0) // txReady
	w.u4(PortMode8N1)
	w.u4(baud)
	w.u2(inProto)
	w.u2(outProto)
	w.u2(0) // flags
	w.u2(0)
	return &Frame{Class: ClassCFG, ID: MsgCfgPrt, Payload: w.bytes()}
}
