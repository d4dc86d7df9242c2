// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ubx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Payload decode errors
var (
	ErrLengthMismatch     = errors.New("payload length mismatch")
	ErrUnsupportedVersion = errors.New("unsupported message version")
	ErrUnknownMessage     = errors.New("unknown message")
	ErrTableOverflow      = errors.New("block count exceeds table capacity")
)

// Message is a decoded UBX payload. The concrete type is selected by the
// frame's class and id.
type Message interface {
	MessageClass() uint8
	MessageID() uint8
	UnmarshalBinary(payload []byte) error
}

// Decodable reports whether class/id is a message this package decodes
func Decodable(class, id uint8) bool {
	switch class {
	case ClassNAV:
		switch id {
		case MsgNavPosLLH, MsgNavStatus, MsgNavSol, MsgNavPVT, MsgNavVelNED,
			MsgNavTimeUTC, MsgNavSVInfo, MsgNavSat, MsgNavSig:
			return true
		}
	case ClassACK:
		return id == MsgAckAck || id == MsgAckNak
	case ClassMON:
		return id == MsgMonVer || id == MsgMonGNSS
	}
	return false
}

// NewMessage returns an empty message value for class/id, or nil when the
// pair is not one this package decodes.
func NewMessage(class, id uint8) Message {
	switch class {
	case ClassNAV:
		switch id {
		case MsgNavPosLLH:
			return &NavPosLLH{}
		case MsgNavStatus:
			return &NavStatus{}
		case MsgNavSol:
			return &NavSol{}
		case MsgNavPVT:
			return &NavPVT{}
		case MsgNavVelNED:
			return &NavVelNED{}
		case MsgNavTimeUTC:
			return &NavTimeUTC{}
		case MsgNavSVInfo:
			return &NavSVInfo{}
		case MsgNavSat:
			return &NavSat{}
		case MsgNavSig:
			return &NavSig{}
		}
	case ClassACK:
		switch id {
		case MsgAckAck, MsgAckNak:
			return &Ack{Acknowledged: id == MsgAckAck}
		}
	case ClassMON:
		switch id {
		case MsgMonVer:
			return &MonVer{}
		case MsgMonGNSS:
			return &MonGNSS{}
		}
	}
	return nil
}

// Decode decodes a frame's payload into its typed message.
// Allocates a new message per call; hot paths should keep a message value and
// call UnmarshalBinary on it instead.
func Decode(f *Frame) (Message, error) {
	m := NewMessage(f.Class, f.ID)
	if m == nil {
		return nil, fmt.Errorf("%w: class 0x%02X id 0x%02X", ErrUnknownMessage, f.Class, f.ID)
	}
	if err := m.UnmarshalBinary(f.Payload); err != nil {
		return nil, err
	}
	return m, nil
}

func checkLength(name string, payload []byte, expected int) error {
	if len(payload) != expected {
		return fmt.Errorf("%w: %s %d bytes (expected %d)", ErrLengthMismatch, name, len(payload), expected)
	}
	return nil
}

func u2(p []byte) uint16 { return binary.LittleEndian.Uint16(p) }
func u4(p []byte) uint32 { return binary.LittleEndian.Uint32(p) }
func i2(p []byte) int16  { return int16(binary.LittleEndian.Uint16(p)) }
func i4(p []byte) int32  { return int32(binary.LittleEndian.Uint32(p)) }

//////////////////////////////////////////////////////////////
// NAV-POSLLH
//////////////////////////////////////////////////////////////

// NavPosLLH is the geodetic position solution
type NavPosLLH struct {
	ITOW            uint32 // ms
	Lon             int32  // 1e-7 deg
	Lat             int32  // 1e-7 deg
	HeightEllipsoid int32  // mm
	HeightMSL       int32  // mm
	HAcc            uint32 // mm
	VAcc            uint32 // mm
}

func (*NavPosLLH) MessageClass() uint8 { return ClassNAV }
func (*NavPosLLH) MessageID() uint8    { return MsgNavPosLLH }

// UnmarshalBinary decodes a NAV-POSLLH payload
func (m *NavPosLLH) UnmarshalBinary(p []byte) error {
	if err := checkLength("NAV-POSLLH", p, navPosLLHSize); err != nil {
		return err
	}
	*m = NavPosLLH{
		ITOW:            u4(p[0:]),
		Lon:             i4(p[4:]),
		Lat:             i4(p[8:]),
		HeightEllipsoid: i4(p[12:]),
		HeightMSL:       i4(p[16:]),
		HAcc:            u4(p[20:]),
		VAcc:            u4(p[24:]),
	}
	return nil
}

//////////////////////////////////////////////////////////////
// NAV-STATUS
//////////////////////////////////////////////////////////////

// NavStatus is the receiver navigation status
type NavStatus struct {
	ITOW      uint32
	FixType   FixType
	Flags     uint8
	FixStatus uint8
	Flags2    uint8
	TTFF      uint32 // ms
	Uptime    uint32 // ms since startup
}

func (*NavStatus) MessageClass() uint8 { return ClassNAV }
func (*NavStatus) MessageID() uint8    { return MsgNavStatus }

// FixValid reports whether the fix is within DOP and accuracy masks
func (m *NavStatus) FixValid() bool { return m.Flags&NavStatusFixValid != 0 }

// UnmarshalBinary decodes a NAV-STATUS payload
func (m *NavStatus) UnmarshalBinary(p []byte) error {
	if err := checkLength("NAV-STATUS", p, navStatusSize); err != nil {
		return err
	}
	*m = NavStatus{
		ITOW:      u4(p[0:]),
		FixType:   FixType(p[4]),
		Flags:     p[5],
		FixStatus: p[6],
		Flags2:    p[7],
		TTFF:      u4(p[8:]),
		Uptime:    u4(p[12:]),
	}
	return nil
}

//////////////////////////////////////////////////////////////
// NAV-SOL
//////////////////////////////////////////////////////////////

// NavSol is the ECEF navigation solution
type NavSol struct {
	ITOW    uint32
	FTOW    int32 // ns
	Week    int16
	FixType FixType
	Flags   uint8
	EcefX   int32  // cm
	EcefY   int32  // cm
	EcefZ   int32  // cm
	PAcc    uint32 // cm
	EcefVX  int32  // cm/s
	EcefVY  int32  // cm/s
	EcefVZ  int32  // cm/s
	SAcc    uint32 // cm/s
	PDOP    uint16 // 0.01
	NumSV   uint8
}

func (*NavSol) MessageClass() uint8 { return ClassNAV }
func (*NavSol) MessageID() uint8    { return MsgNavSol }

// FixValid reports whether the fix is within DOP and accuracy masks
func (m *NavSol) FixValid() bool { return m.Flags&NavStatusFixValid != 0 }

// UnmarshalBinary decodes a NAV-SOL payload
func (m *NavSol) UnmarshalBinary(p []byte) error {
	if err := checkLength("NAV-SOL", p, navSolSize); err != nil {
		return err
	}
	*m = NavSol{
		ITOW:    u4(p[0:]),
		FTOW:    i4(p[4:]),
		Week:    i2(p[8:]),
		FixType: FixType(p[10]),
		Flags:   p[11],
		EcefX:   i4(p[12:]),
		EcefY:   i4(p[16:]),
		EcefZ:   i4(p[20:]),
		PAcc:    u4(p[24:]),
		EcefVX:  i4(p[28:]),
		EcefVY:  i4(p[32:]),
		EcefVZ:  i4(p[36:]),
		SAcc:    u4(p[40:]),
		PDOP:    u2(p[44:]),
		NumSV:   p[47],
	}
	return nil
}

//////////////////////////////////////////////////////////////
// NAV-PVT
//////////////////////////////////////////////////////////////

// NavPVT is the combined position, velocity and time solution
type NavPVT struct {
	ITOW            uint32
	Year            uint16
	Month           uint8
	Day             uint8
	Hour            uint8
	Min             uint8
	Sec             uint8
	Valid           uint8
	TAcc            uint32 // ns
	Nano            int32  // ns
	FixType         FixType
	Flags           uint8
	Flags2          uint8
	NumSV           uint8
	Lon             int32  // 1e-7 deg
	Lat             int32  // 1e-7 deg
	HeightEllipsoid int32  // mm
	HeightMSL       int32  // mm
	HAcc            uint32 // mm
	VAcc            uint32 // mm
	VelN            int32  // mm/s
	VelE            int32  // mm/s
	VelD            int32  // mm/s
	GroundSpeed     int32  // mm/s
	HeadingMotion   int32  // 1e-5 deg
	SAcc            uint32 // mm/s
	HeadingAcc      uint32 // 1e-5 deg
	PDOP            uint16 // 0.01
	Flags3          uint16
	HeadingVehicle  int32 // 1e-5 deg
	MagDec          int16 // 1e-2 deg
	MagAcc          uint16
}

func (*NavPVT) MessageClass() uint8 { return ClassNAV }
func (*NavPVT) MessageID() uint8    { return MsgNavPVT }

// FixValid reports whether the fix is within DOP and accuracy masks
func (m *NavPVT) FixValid() bool { return m.Flags&NavStatusFixValid != 0 }

// DateTimeValid reports whether both the UTC date and time are valid
func (m *NavPVT) DateTimeValid() bool {
	return m.Valid&ValidDate != 0 && m.Valid&ValidTime != 0
}

// UnmarshalBinary decodes a NAV-PVT payload
func (m *NavPVT) UnmarshalBinary(p []byte) error {
	if err := checkLength("NAV-PVT", p, navPVTSize); err != nil {
		return err
	}
	*m = NavPVT{
		ITOW:            u4(p[0:]),
		Year:            u2(p[4:]),
		Month:           p[6],
		Day:             p[7],
		Hour:            p[8],
		Min:             p[9],
		Sec:             p[10],
		Valid:           p[11],
		TAcc:            u4(p[12:]),
		Nano:            i4(p[16:]),
		FixType:         FixType(p[20]),
		Flags:           p[21],
		Flags2:          p[22],
		NumSV:           p[23],
		Lon:             i4(p[24:]),
		Lat:             i4(p[28:]),
		HeightEllipsoid: i4(p[32:]),
		HeightMSL:       i4(p[36:]),
		HAcc:            u4(p[40:]),
		VAcc:            u4(p[44:]),
		VelN:            i4(p[48:]),
		VelE:            i4(p[52:]),
		VelD:            i4(p[56:]),
		GroundSpeed:     i4(p[60:]),
		HeadingMotion:   i4(p[64:]),
		SAcc:            u4(p[68:]),
		HeadingAcc:      u4(p[72:]),
		PDOP:            u2(p[76:]),
		Flags3:          u2(p[78:]),
		HeadingVehicle:  i4(p[84:]),
		MagDec:          i2(p[88:]),
		MagAcc:          u2(p[90:]),
	}
	return nil
}

//////////////////////////////////////////////////////////////
// NAV-VELNED
//////////////////////////////////////////////////////////////

// NavVelNED is the velocity solution in the NED frame
type NavVelNED struct {
	ITOW        uint32
	VelN        int32  // cm/s
	VelE        int32  // cm/s
	VelD        int32  // cm/s
	Speed       uint32 // cm/s, 3D
	GroundSpeed uint32 // cm/s, 2D
	Heading     int32  // 1e-5 deg
	SAcc        uint32 // cm/s
	HeadingAcc  uint32 // 1e-5 deg
}

func (*NavVelNED) MessageClass() uint8 { return ClassNAV }
func (*NavVelNED) MessageID() uint8    { return MsgNavVelNED }

// UnmarshalBinary decodes a NAV-VELNED payload
func (m *NavVelNED) UnmarshalBinary(p []byte) error {
	if err := checkLength("NAV-VELNED", p, navVelNEDSize); err != nil {
		return err
	}
	*m = NavVelNED{
		ITOW:        u4(p[0:]),
		VelN:        i4(p[4:]),
		VelE:        i4(p[8:]),
		VelD:        i4(p[12:]),
		Speed:       u4(p[16:]),
		GroundSpeed: u4(p[20:]),
		Heading:     i4(p[24:]),
		SAcc:        u4(p[28:]),
		HeadingAcc:  u4(p[32:]),
	}
	return nil
}

//////////////////////////////////////////////////////////////
// NAV-TIMEUTC
//////////////////////////////////////////////////////////////

// NavTimeUTC is the UTC time solution
type NavTimeUTC struct {
	ITOW  uint32
	TAcc  uint32 // ns
	Nano  int32  // ns
	Year  uint16
	Month uint8
	Day   uint8
	Hour  uint8
	Min   uint8
	Sec   uint8
	Valid uint8
}

func (*NavTimeUTC) MessageClass() uint8 { return ClassNAV }
func (*NavTimeUTC) MessageID() uint8    { return MsgNavTimeUTC }

// DateTimeValid reports whether both the UTC date and time are valid
func (m *NavTimeUTC) DateTimeValid() bool {
	return m.Valid&ValidDate != 0 && m.Valid&ValidTime != 0
}

// UnmarshalBinary decodes a NAV-TIMEUTC payload
func (m *NavTimeUTC) UnmarshalBinary(p []byte) error {
	if err := checkLength("NAV-TIMEUTC", p, navTimeUTCSize); err != nil {
		return err
	}
	*m = NavTimeUTC{
		ITOW:  u4(p[0:]),
		TAcc:  u4(p[4:]),
		Nano:  i4(p[8:]),
		Year:  u2(p[12:]),
		Month: p[14],
		Day:   p[15],
		Hour:  p[16],
		Min:   p[17],
		Sec:   p[18],
		Valid: p[19],
	}
	return nil
}

//////////////////////////////////////////////////////////////
// NAV-SIG
//////////////////////////////////////////////////////////////

// SignalInfo is one NAV-SIG signal block
type SignalInfo struct {
	GnssID     uint8
	SvID       uint8
	SigID      uint8
	FreqID     uint8
	PRRes      int16 // 0.1 m
	Cno        uint8 // dBHz
	Quality    SignalQuality
	CorrSource uint8
	IonoModel  uint8
	Flags      uint16
}

// Health returns the signal health field
func (s *SignalInfo) Health() SignalHealth { return SignalHealth(s.Flags & SigHealthMask) }

// PRUsed reports whether the pseudorange was used in the solution
func (s *SignalInfo) PRUsed() bool { return s.Flags&SigPRUsed != 0 }

// CRUsed reports whether the carrier range was used in the solution
func (s *SignalInfo) CRUsed() bool { return s.Flags&SigCRUsed != 0 }

// DOUsed reports whether the doppler was used in the solution
func (s *SignalInfo) DOUsed() bool { return s.Flags&SigDOUsed != 0 }

// CorrectionsUsed reports whether any correction was applied to the signal
func (s *SignalInfo) CorrectionsUsed() bool {
	return s.Flags&(SigPRCorrUsed|SigCRCorrUsed|SigDOCorrUsed) != 0
}

// NavSig is the signal information report. Only the first Count entries of
// Signals are meaningful.
type NavSig struct {
	ITOW    uint32
	Version uint8
	Count   int
	Signals [MaxSignals]SignalInfo
}

func (*NavSig) MessageClass() uint8 { return ClassNAV }
func (*NavSig) MessageID() uint8    { return MsgNavSig }

// UnmarshalBinary decodes a NAV-SIG payload. The payload is fully validated
// before any field of m is written.
func (m *NavSig) UnmarshalBinary(p []byte) error {
	if len(p) < navSigHeaderSize {
		return fmt.Errorf("%w: NAV-SIG %d bytes (minimum %d)", ErrLengthMismatch, len(p), navSigHeaderSize)
	}
	if p[4] != NavSigVersion {
		return fmt.Errorf("%w: NAV-SIG version %d", ErrUnsupportedVersion, p[4])
	}
	count := int(p[5])
	if count > MaxSignals {
		return fmt.Errorf("%w: NAV-SIG %d signals (max %d)", ErrTableOverflow, count, MaxSignals)
	}
	if err := checkLength("NAV-SIG", p, navSigHeaderSize+count*navSigBlockSize); err != nil {
		return err
	}

	m.ITOW = u4(p[0:])
	m.Version = p[4]
	m.Count = count
	for i := 0; i < count; i++ {
		b := p[navSigHeaderSize+i*navSigBlockSize:]
		m.Signals[i] = SignalInfo{
			GnssID:     b[0],
			SvID:       b[1],
			SigID:      b[2],
			FreqID:     b[3],
			PRRes:      i2(b[4:]),
			Cno:        b[6],
			Quality:    SignalQuality(b[7]),
			CorrSource: b[8],
			IonoModel:  b[9],
			Flags:      u2(b[10:]),
		}
	}
	return nil
}

//////////////////////////////////////////////////////////////
// NAV-SAT / NAV-SVINFO
//////////////////////////////////////////////////////////////

// SatelliteInfo is one per-satellite block from NAV-SAT or NAV-SVINFO
type SatelliteInfo struct {
	GnssID  uint8
	SvID    uint8
	Channel uint8 // NAV-SVINFO only, 255 when unassigned
	Cno     uint8 // dBHz
	Elev    int8  // deg
	Azim    int16 // deg
	PRResCm int32
	Quality uint8 // NAV-SVINFO only
	Flags   uint32
}

// NavSat is the satellite information report. Only the first Count entries
// of Satellites are meaningful.
type NavSat struct {
	ITOW       uint32
	Version    uint8
	Count      int
	Satellites [MaxSignals]SatelliteInfo
}

func (*NavSat) MessageClass() uint8 { return ClassNAV }
func (*NavSat) MessageID() uint8    { return MsgNavSat }

// UnmarshalBinary decodes a NAV-SAT payload
func (m *NavSat) UnmarshalBinary(p []byte) error {
	if len(p) < navSatHeaderSize {
		return fmt.Errorf("%w: NAV-SAT %d bytes (minimum %d)", ErrLengthMismatch, len(p), navSatHeaderSize)
	}
	if p[4] != NavSatVersion {
		return fmt.Errorf("%w: NAV-SAT version %d", ErrUnsupportedVersion, p[4])
	}
	count := int(p[5])
	if count > MaxSignals {
		return fmt.Errorf("%w: NAV-SAT %d satellites (max %d)", ErrTableOverflow, count, MaxSignals)
	}
	if err := checkLength("NAV-SAT", p, navSatHeaderSize+count*navSatBlockSize); err != nil {
		return err
	}

	m.ITOW = u4(p[0:])
	m.Version = p[4]
	m.Count = count
	for i := 0; i < count; i++ {
		b := p[navSatHeaderSize+i*navSatBlockSize:]
		m.Satellites[i] = SatelliteInfo{
			GnssID:  b[0],
			SvID:    b[1],
			Channel: 0xFF,
			Cno:     b[2],
			Elev:    int8(b[3]),
			Azim:    i2(b[4:]),
			PRResCm: int32(i2(b[6:])) * 10,
			Flags:   u4(b[8:]),
		}
	}
	return nil
}

// NavSVInfo is the legacy per-channel satellite report. Only the first
// Count entries of Satellites are meaningful.
type NavSVInfo struct {
	ITOW        uint32
	GlobalFlags uint8
	Count       int
	Satellites  [MaxSignals]SatelliteInfo
}

func (*NavSVInfo) MessageClass() uint8 { return ClassNAV }
func (*NavSVInfo) MessageID() uint8    { return MsgNavSVInfo }

// UnmarshalBinary decodes a NAV-SVINFO payload
func (m *NavSVInfo) UnmarshalBinary(p []byte) error {
	if len(p) < navSVInfoHeaderSize {
		return fmt.Errorf("%w: NAV-SVINFO %d bytes (minimum %d)", ErrLengthMismatch, len(p), navSVInfoHeaderSize)
	}
	count := int(p[4])
	if count > MaxSignals {
		return fmt.Errorf("%w: NAV-SVINFO %d channels (max %d)", ErrTableOverflow, count, MaxSignals)
	}
	if err := checkLength("NAV-SVINFO", p, navSVInfoHeaderSize+count*navSVInfoBlockSize); err != nil {
		return err
	}

	m.ITOW = u4(p[0:])
	m.GlobalFlags = p[5]
	m.Count = count
	for i := 0; i < count; i++ {
		b := p[navSVInfoHeaderSize+i*navSVInfoBlockSize:]
		m.Satellites[i] = SatelliteInfo{
			GnssID:  GnssFromSVID(b[1]),
			SvID:    b[1],
			Channel: b[0],
			Flags:   uint32(b[2]),
			Quality: b[3],
			Cno:     b[4],
			Elev:    int8(b[5]),
			Azim:    i2(b[6:]),
			PRResCm: i4(b[8:]),
		}
	}
	return nil
}

// GnssFromSVID maps a legacy NAV-SVINFO satellite number to its GNSS id
func GnssFromSVID(svid uint8) uint8 {
	switch {
	case svid >= 1 && svid <= 32:
		return GnssGPS
	case svid >= 33 && svid <= 64, svid >= 159 && svid <= 163:
		return GnssBeiDou
	case svid >= 65 && svid <= 96, svid == 255:
		return GnssGLONASS
	case svid >= 120 && svid <= 158:
		return GnssSBAS
	case svid >= 173 && svid <= 182:
		return GnssIMES
	case svid >= 193 && svid <= 197:
		return GnssQZSS
	case svid >= 211 && svid <= 246:
		return GnssGalileo
	}
	return GnssGPS
}

//////////////////////////////////////////////////////////////
// ACK-ACK / ACK-NAK
//////////////////////////////////////////////////////////////

// Ack is an ACK-ACK or ACK-NAK carrying the class/id of the answered command
type Ack struct {
	Acknowledged bool
	Class        uint8
	ID           uint8
}

func (*Ack) MessageClass() uint8 { return ClassACK }

// MessageID returns MsgAckAck or MsgAckNak
func (m *Ack) MessageID() uint8 {
	if m.Acknowledged {
		return MsgAckAck
	}
	return MsgAckNak
}

// UnmarshalBinary decodes an ACK payload; Acknowledged is left as set by
// the caller (NewMessage sets it from the frame id).
func (m *Ack) UnmarshalBinary(p []byte) error {
	if err := checkLength("ACK", p, ackSize); err != nil {
		return err
	}
	m.Class = p[0]
	m.ID = p[1]
	return nil
}

//////////////////////////////////////////////////////////////
// MON-VER
//////////////////////////////////////////////////////////////

// MonVer is the receiver software/hardware version report
type MonVer struct {
	Software   string
	Hardware   string
	Extensions []string
}

func (*MonVer) MessageClass() uint8 { return ClassMON }
func (*MonVer) MessageID() uint8    { return MsgMonVer }

// UnmarshalBinary decodes a MON-VER payload
func (m *MonVer) UnmarshalBinary(p []byte) error {
	base := monVerSWSize + monVerHWSize
	if len(p) < base || (len(p)-base)%monVerExtensionSize != 0 {
		return fmt.Errorf("%w: MON-VER %d bytes", ErrLengthMismatch, len(p))
	}
	n := (len(p) - base) / monVerExtensionSize
	if n > monVerMaxExtensions {
		return fmt.Errorf("%w: MON-VER %d extensions (max %d)", ErrTableOverflow, n, monVerMaxExtensions)
	}

	m.Software = cString(p[:monVerSWSize])
	m.Hardware = cString(p[monVerSWSize:base])
	m.Extensions = m.Extensions[:0]
	for i := 0; i < n; i++ {
		off := base + i*monVerExtensionSize
		m.Extensions = append(m.Extensions, cString(p[off:off+monVerExtensionSize]))
	}
	return nil
}

// HWVersion decodes the hardware generation from the hardware string
func (m *MonVer) HWVersion() HWVersion {
	return ParseHWVersion(m.Hardware)
}

// ProtocolVersion returns the protocol version, preferring the PROTVER
// extension and falling back to the software version string.
func (m *MonVer) ProtocolVersion() (Version, bool) {
	for _, ext := range m.Extensions {
		if strings.HasPrefix(ext, "PROTVER") {
			if v, ok := ParseVersion(ext); ok {
				return v, true
			}
		}
	}
	return ParseVersion(m.Software)
}

// Extension returns the value of a KEY=value extension string
func (m *MonVer) Extension(key string) (string, bool) {
	for _, ext := range m.Extensions {
		if k, v, ok := strings.Cut(ext, "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

func cString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

//////////////////////////////////////////////////////////////
// MON-GNSS
//////////////////////////////////////////////////////////////

// MonGNSS reports supported, default and enabled constellations
type MonGNSS struct {
	Version       uint8
	Supported     uint8
	Default       uint8
	Enabled       uint8
	MaxConcurrent uint8
}

func (*MonGNSS) MessageClass() uint8 { return ClassMON }
func (*MonGNSS) MessageID() uint8    { return MsgMonGNSS }

// UnmarshalBinary decodes a MON-GNSS payload
func (m *MonGNSS) UnmarshalBinary(p []byte) error {
	if err := checkLength("MON-GNSS", p, monGNSSSize); err != nil {
		return err
	}
	*m = MonGNSS{
		Version:       p[0],
		Supported:     p[1],
		Default:       p[2],
		Enabled:       p[3],
		MaxConcurrent: p[4],
	}
	return nil
}
