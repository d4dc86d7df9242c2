// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package ubx provides a Go implementation of the u-blox UBX binary protocol
// subset used for receiver configuration and navigation reporting.
//
// The package covers frame encoding, a byte-at-a-time frame decoder with
// Fletcher checksum validation, typed payload decoders, CFG-VALSET key/value
// frame building, legacy CFG frame builders, validation and formatting.
package ubx

// Protocol framing bytes
const (
	Sync1 = 0xB5
	Sync2 = 0x62
)

// Frame size limits
const (
	HeaderSize    = 6 // sync1, sync2, class, id, length (2)
	ChecksumSize  = 2
	FrameOverhead = HeaderSize + ChecksumSize

	// MaxSignals bounds every per-signal and per-satellite table.
	MaxSignals = 64

	// MaxPayloadSize is sized for the largest supported message, a NAV-SIG
	// report carrying MaxSignals 16-byte blocks after an 8-byte header.
	MaxPayloadSize = MaxSignals*navSigBlockSize + navSigHeaderSize
	MaxFrameSize   = MaxPayloadSize + FrameOverhead
)

// Message classes
const (
	ClassNAV  = 0x01
	ClassACK  = 0x05
	ClassCFG  = 0x06
	ClassMON  = 0x0A
	ClassNMEA = 0xF0
)

// Message IDs - NAV (Receiver → Host)
const (
	MsgNavPosLLH  = 0x02
	MsgNavStatus  = 0x03
	MsgNavSol     = 0x06
	MsgNavPVT     = 0x07
	MsgNavVelNED  = 0x12
	MsgNavTimeUTC = 0x21
	MsgNavSVInfo  = 0x30
	MsgNavSat     = 0x35
	MsgNavSig     = 0x43
)

// Message IDs - ACK (Receiver → Host)
const (
	MsgAckNak = 0x00
	MsgAckAck = 0x01
)

// Message IDs - CFG (Host → Receiver)
const (
	MsgCfgPrt    = 0x00
	MsgCfgMsg    = 0x01
	MsgCfgRate   = 0x08
	MsgCfgSBAS   = 0x16
	MsgCfgNav5   = 0x24 // NAV_SETTINGS
	MsgCfgGNSS   = 0x3E
	MsgCfgValset = 0x8A
)

// Message IDs - MON (polled)
const (
	MsgMonVer  = 0x04
	MsgMonGNSS = 0x28
)

// Message IDs - NMEA (class 0xF0, only used to switch NMEA output off)
const (
	MsgNmeaGGA = 0x00
	MsgNmeaGLL = 0x01
	MsgNmeaGSA = 0x02
	MsgNmeaGSV = 0x03
	MsgNmeaRMC = 0x04
	MsgNmeaVTG = 0x05
)

// Decoder states (internal)
const (
	stateSync1 = iota
	stateSync2
	stateClass
	stateID
	stateLength1
	stateLength2
	statePayload
	stateChecksumA
	stateChecksumB
)

// Payload sizes of fixed-layout messages
const (
	navPosLLHSize  = 28
	navStatusSize  = 16
	navSolSize     = 52
	navPVTSize     = 92
	navVelNEDSize  = 36
	navTimeUTCSize = 20
	monGNSSSize    = 8
	ackSize        = 2

	navSigHeaderSize    = 8
	navSigBlockSize     = 16
	navSatHeaderSize    = 8
	navSatBlockSize     = 12
	navSVInfoHeaderSize = 8
	navSVInfoBlockSize  = 12

	monVerSWSize        = 30
	monVerHWSize        = 10
	monVerExtensionSize = 30
	monVerMaxExtensions = 16
)

// Payload versions understood by the decoders
const (
	NavSigVersion = 0
	NavSatVersion = 1
)

// DynModel is the receiver's dynamic platform model (CFG-NAV5 / NAVSPG-DYNMODEL)
type DynModel uint8

// Dynamic model values
const (
	DynModelPortable   DynModel = 0
	DynModelStationary DynModel = 2
	DynModelPedestrian DynModel = 3
	DynModelAutomotive DynModel = 4
	DynModelSea        DynModel = 5
	DynModelAirborne1G DynModel = 6
	DynModelAirborne2G DynModel = 7
	DynModelAirborne4G DynModel = 8
	DynModelWrist      DynModel = 9
	DynModelBike       DynModel = 10
	DynModelMower      DynModel = 11
	DynModelEScooter   DynModel = 12
)

// FixMode constrains the permitted fix dimensionality
type FixMode uint8

// Fix mode values
const (
	FixMode2DOnly FixMode = 1
	FixMode3DOnly FixMode = 2
	FixModeAuto   FixMode = 3
)

// FixType is the fix type reported by NAV-STATUS, NAV-SOL and NAV-PVT
type FixType uint8

// Fix type values
const (
	FixNone             FixType = 0
	FixDeadReckoning    FixType = 1
	Fix2D               FixType = 2
	Fix3D               FixType = 3
	FixGPSDeadReckoning FixType = 4
	FixTimeOnly         FixType = 5
)

// NAV-STATUS / NAV-SOL / NAV-PVT flags
const (
	NavStatusFixValid = 1 << 0
	NavStatusDiffSoln = 1 << 1
)

// NAV-PVT and NAV-TIMEUTC validity bits
const (
	ValidDate = 1 << 0
	ValidTime = 1 << 1
)

// HWVersion is the receiver hardware generation decoded from MON-VER
type HWVersion int

// Hardware generations
const (
	HWVersionUnknown HWVersion = 0
	HWVersionUblox5  HWVersion = 500
	HWVersionUblox6  HWVersion = 600
	HWVersionUblox7  HWVersion = 700
	HWVersionUblox8  HWVersion = 800
	HWVersionUblox9  HWVersion = 900
	HWVersionUblox10 HWVersion = 1000
)

// GNSS identifiers used by NAV-SIG, NAV-SAT and CFG-GNSS
const (
	GnssGPS     = 0
	GnssSBAS    = 1
	GnssGalileo = 2
	GnssBeiDou  = 3
	GnssIMES    = 4
	GnssQZSS    = 5
	GnssGLONASS = 6
)

// MON-GNSS constellation bits
const (
	MonGnssGPS     = 1 << 0
	MonGnssGLONASS = 1 << 1
	MonGnssBeiDou  = 1 << 2
	MonGnssGalileo = 1 << 3
)

// NAV-SIG signal flags
const (
	SigHealthMask = 0x0003
	SigPRSmoothed = 1 << 2
	SigPRUsed     = 1 << 3
	SigCRUsed     = 1 << 4
	SigDOUsed     = 1 << 5
	SigPRCorrUsed = 1 << 6
	SigCRCorrUsed = 1 << 7
	SigDOCorrUsed = 1 << 8
	SigAuthStatus = 1 << 9
)

// SignalHealth is the health field of a NAV-SIG block
type SignalHealth uint8

// Signal health values
const (
	SignalHealthUnknown   SignalHealth = 0
	SignalHealthHealthy   SignalHealth = 1
	SignalHealthUnhealthy SignalHealth = 2
)

// SignalQuality is the quality indicator of a NAV-SIG block
type SignalQuality uint8

// Signal quality values
const (
	SignalQualityNoSignal                 SignalQuality = 0
	SignalQualitySearching                SignalQuality = 1
	SignalQualityAcquired                 SignalQuality = 2
	SignalQualityUnusable                 SignalQuality = 3
	SignalQualityCodeLockTimeSync         SignalQuality = 4
	SignalQualityCodeCarrierLockTimeSync  SignalQuality = 5
	SignalQualityCodeCarrierLockTimeSync2 SignalQuality = 6
	SignalQualityCodeCarrierLockTimeSync3 SignalQuality = 7
)

// Configuration layers (CFG-VALSET)
const (
	LayerRAM   = 0x01
	LayerBBR   = 0x02
	LayerFlash = 0x04
)

// CFG-VALSET header versions
const (
	ValsetVersionPlain         = 0x00
	ValsetVersionTransactional = 0x01
)

// CFG-VALSET transaction actions (transactional header only)
const (
	TransactionNone     = 0
	TransactionBegin    = 1
	TransactionContinue = 2
	TransactionApply    = 3
)

// MaxValsetEntries is the most key/value pairs placed in one CFG-VALSET frame
const MaxValsetEntries = 32

// SBAS PRN scan mask bits (CFG-SBAS scanmode1 / SBAS-PRNSCANMASK)
const (
	SBASAll    uint64 = 0
	SBASPRN120 uint64 = 1 << 0
	SBASPRN121 uint64 = 1 << 1
	SBASPRN122 uint64 = 1 << 2
	SBASPRN123 uint64 = 1 << 3
	SBASPRN124 uint64 = 1 << 4
	SBASPRN125 uint64 = 1 << 5
	SBASPRN126 uint64 = 1 << 6
	SBASPRN127 uint64 = 1 << 7
	SBASPRN128 uint64 = 1 << 8
	SBASPRN129 uint64 = 1 << 9
	SBASPRN130 uint64 = 1 << 10
	SBASPRN131 uint64 = 1 << 11
	SBASPRN132 uint64 = 1 << 12
	SBASPRN133 uint64 = 1 << 13
	SBASPRN134 uint64 = 1 << 14
	SBASPRN135 uint64 = 1 << 15
	SBASPRN136 uint64 = 1 << 16
	SBASPRN137 uint64 = 1 << 17
	SBASPRN138 uint64 = 1 << 18
	SBASPRN139 uint64 = 1 << 19
	SBASPRN140 uint64 = 1 << 20
	SBASPRN141 uint64 = 1 << 21
	SBASPRN142 uint64 = 1 << 22
	SBASPRN143 uint64 = 1 << 23
	SBASPRN144 uint64 = 1 << 24
	SBASPRN145 uint64 = 1 << 25
	SBASPRN146 uint64 = 1 << 26
	SBASPRN147 uint64 = 1 << 27
	SBASPRN148 uint64 = 1 << 28
	SBASPRN149 uint64 = 1 << 29
	SBASPRN150 uint64 = 1 << 30
	SBASPRN151 uint64 = 1 << 31
	SBASPRN152 uint64 = 1 << 32
	SBASPRN153 uint64 = 1 << 33
	SBASPRN154 uint64 = 1 << 34
	SBASPRN155 uint64 = 1 << 35
	SBASPRN156 uint64 = 1 << 36
	SBASPRN157 uint64 = 1 << 37
	SBASPRN158 uint64 = 1 << 38
)
