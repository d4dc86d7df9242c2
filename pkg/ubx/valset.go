// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ubx

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// CFG-VALSET errors
var (
	ErrUnsupportedKeyWidth = errors.New("unsupported configuration key width")
	ErrTooManyEntries      = errors.New("too many configuration entries")
	ErrMixedWidths         = errors.New("mixed value widths in one frame")
	ErrValueOverflow       = errors.New("value does not fit key width")
	ErrNoEntries           = errors.New("no configuration entries")
)

// ConfigKey is a 32-bit configuration item identifier. Bits 28-30 encode
// the storage size of the item's value.
type ConfigKey uint32

// Configuration keys (CFG-VALSET, u-blox 9 and newer)
const (
	KeyMsgOutNavPosLLHUART1  ConfigKey = 0x2091002A
	KeyMsgOutNavSatUART1     ConfigKey = 0x20910016
	KeyMsgOutNavSigUART1     ConfigKey = 0x20910346
	KeyMsgOutNavStatusUART1  ConfigKey = 0x2091001B
	KeyMsgOutNavVelNEDUART1  ConfigKey = 0x20910043
	KeyMsgOutNavTimeUTCUART1 ConfigKey = 0x2091005C
	KeyMsgOutNavPVTUART1     ConfigKey = 0x20910007

	KeyMsgOutNmeaGGAUART1 ConfigKey = 0x209100BB
	KeyMsgOutNmeaGLLUART1 ConfigKey = 0x209100CA
	KeyMsgOutNmeaGSAUART1 ConfigKey = 0x209100C0
	KeyMsgOutNmeaRMCUART1 ConfigKey = 0x209100AC
	KeyMsgOutNmeaVTGUART1 ConfigKey = 0x209100B1

	KeyNavSpgFixMode  ConfigKey = 0x20110011
	KeyNavSpgDynModel ConfigKey = 0x20110021

	KeyRateMeas    ConfigKey = 0x30210001
	KeyRateNav     ConfigKey = 0x30210002
	KeyRateTimeRef ConfigKey = 0x20210003

	KeySignalSBASEnable     ConfigKey = 0x10310020
	KeySignalSBASL1CAEnable ConfigKey = 0x10310005
	KeySignalGalEnable      ConfigKey = 0x10310021
	KeySignalGalE1Enable    ConfigKey = 0x10310007
	KeySignalBDSEnable      ConfigKey = 0x10310022
	KeySignalBDSB1Enable    ConfigKey = 0x1031000D
	KeySignalBDSB1CEnable   ConfigKey = 0x1031000F
	KeySignalQZSSEnable     ConfigKey = 0x10310024
	KeySignalQZSSL1CAEnable ConfigKey = 0x10310012
	KeySignalQZSSL1SEnable  ConfigKey = 0x10310014
	KeySignalGLOEnable      ConfigKey = 0x10310025
	KeySignalGLOL1Enable    ConfigKey = 0x10310018

	// 8-byte value, not representable in an 8/16-bit batch
	KeySBASPRNScanMask ConfigKey = 0x50360006
)

// Key size codes (bits 28-30)
const (
	keySizeBit     = 1
	keySizeOne     = 2
	keySizeTwo     = 3
	keySizeFour    = 4
	keySizeEight   = 5
	keySizeShift   = 28
	keySizeMask    = 0x7
	valsetKeyBytes = 4
)

// ValueWidth is the encoded byte width of a configuration value
type ValueWidth uint8

// Supported value widths
const (
	Width8  ValueWidth = 1
	Width16 ValueWidth = 2
)

func (w ValueWidth) String() string {
	switch w {
	case Width8:
		return "8-bit"
	case Width16:
		return "16-bit"
	}
	return fmt.Sprintf("width(%d)", uint8(w))
}

// SizeCode returns the raw storage size code of the key
func (k ConfigKey) SizeCode() uint8 {
	return uint8(k>>keySizeShift) & keySizeMask
}

// Width returns the value width used to encode this key. Bit and one-byte
// keys share the 8-bit encoding; four and eight byte keys are unsupported.
func (k ConfigKey) Width() (ValueWidth, error) {
	switch k.SizeCode() {
	case keySizeBit, keySizeOne:
		return Width8, nil
	case keySizeTwo:
		return Width16, nil
	}
	return 0, fmt.Errorf("%w: key 0x%08X size code %d", ErrUnsupportedKeyWidth, uint32(k), k.SizeCode())
}

func (k ConfigKey) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("0x%08X", uint32(k))
}

// KeyValue is one configuration item to set
type KeyValue struct {
	Key   ConfigKey
	Value uint16
}

// ConfigHeader is the CFG-VALSET header. The transactional version carries
// an extra transaction byte.
type ConfigHeader struct {
	Version     uint8
	Layers      uint8
	Transaction uint8
}

// Size returns the encoded header length
func (h ConfigHeader) Size() int {
	if h.Version == ValsetVersionTransactional {
		return 4
	}
	return 3
}

func (h ConfigHeader) appendTo(dst []byte) []byte {
	if h.Version == ValsetVersionTransactional {
		return append(dst, h.Version, h.Layers, h.Transaction, 0)
	}
	return append(dst, h.Version, h.Layers, 0)
}

// BuildValset builds a CFG-VALSET payload. All entries must share one value
// width and there may be at most MaxValsetEntries of them.
func BuildValset(h ConfigHeader, entries []KeyValue) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	if len(entries) > MaxValsetEntries {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyEntries, len(entries), MaxValsetEntries)
	}

	width, err := entries[0].Key.Width()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, h.Size()+len(entries)*(valsetKeyBytes+int(width)))
	buf = h.appendTo(buf)
	for _, e := range entries {
		w, err := e.Key.Width()
		if err != nil {
			return nil, err
		}
		if w != width {
			return nil, fmt.Errorf("%w: %s is %s, frame is %s", ErrMixedWidths, e.Key, w, width)
		}

		buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Key))
		if width == Width8 {
			if e.Value > 0xFF {
				return nil, fmt.Errorf("%w: %s = %d", ErrValueOverflow, e.Key, e.Value)
			}
			buf = append(buf, uint8(e.Value))
		} else {
			buf = binary.LittleEndian.AppendUint16(buf, e.Value)
		}
	}
	return buf, nil
}

// SplitBatch partitions entries into per-frame groups: 8-bit entries first,
// then 16-bit, each chunked to MaxValsetEntries. Order within a width is
// preserved. Any key of unsupported width fails the whole batch.
func SplitBatch(entries []KeyValue) ([][]KeyValue, error) {
	var narrow, wide []KeyValue
	for _, e := range entries {
		w, err := e.Key.Width()
		if err != nil {
			return nil, err
		}
		if w == Width8 {
			if e.Value > 0xFF {
				return nil, fmt.Errorf("%w: %s = %d", ErrValueOverflow, e.Key, e.Value)
			}
			narrow = append(narrow, e)
		} else {
			wide = append(wide, e)
		}
	}

	var frames [][]KeyValue
	for _, group := range [][]KeyValue{narrow, wide} {
		for len(group) > 0 {
			n := min(len(group), MaxValsetEntries)
			frames = append(frames, group[:n:n])
			group = group[n:]
		}
	}
	return frames, nil
}

// ParseValset decodes a CFG-VALSET payload back into its header and entries
func ParseValset(payload []byte) (ConfigHeader, []KeyValue, error) {
	var h ConfigHeader
	if len(payload) < 3 {
		return h, nil, fmt.Errorf("%w: CFG-VALSET %d bytes", ErrLengthMismatch, len(payload))
	}

	h.Version = payload[0]
	h.Layers = payload[1]
	switch h.Version {
	case ValsetVersionPlain:
	case ValsetVersionTransactional:
		if len(payload) < 4 {
			return h, nil, fmt.Errorf("%w: CFG-VALSET %d bytes", ErrLengthMismatch, len(payload))
		}
		h.Transaction = payload[2]
	default:
		return h, nil, fmt.Errorf("%w: CFG-VALSET version %d", ErrUnsupportedVersion, h.Version)
	}

	var entries []KeyValue
	p := payload[h.Size():]
	for len(p) > 0 {
		if len(p) < valsetKeyBytes {
			return h, nil, fmt.Errorf("%w: truncated key", ErrLengthMismatch)
		}
		key := ConfigKey(binary.LittleEndian.Uint32(p))
		w, err := key.Width()
		if err != nil {
			return h, nil, err
		}
		p = p[valsetKeyBytes:]
		if len(p) < int(w) {
			return h, nil, fmt.Errorf("%w: truncated value for %s", ErrLengthMismatch, key)
		}

		kv := KeyValue{Key: key}
		if w == Width8 {
			kv.Value = uint16(p[0])
		} else {
			kv.Value = binary.LittleEndian.Uint16(p)
		}
		entries = append(entries, kv)
		p = p[w:]
	}
	if len(entries) > MaxValsetEntries {
		return h, nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyEntries, len(entries), MaxValsetEntries)
	}
	return h, entries, nil
}

// NewValset builds a complete CFG-VALSET frame
func NewValset(h ConfigHeader, entries []KeyValue) (*Frame, error) {
	payload, err := BuildValset(h, entries)
	if err != nil {
		return nil, err
	}
	return &Frame{Class: ClassCFG, ID: MsgCfgValset, Payload: payload}, nil
}

var keyNames = map[ConfigKey]string{
	KeyMsgOutNavPosLLHUART1:  "CFG-MSGOUT-UBX_NAV_POSLLH_UART1",
	KeyMsgOutNavSatUART1:     "CFG-MSGOUT-UBX_NAV_SAT_UART1",
	KeyMsgOutNavSigUART1:     "CFG-MSGOUT-UBX_NAV_SIG_UART1",
	KeyMsgOutNavStatusUART1:  "CFG-MSGOUT-UBX_NAV_STATUS_UART1",
	KeyMsgOutNavVelNEDUART1:  "CFG-MSGOUT-UBX_NAV_VELNED_UART1",
	KeyMsgOutNavTimeUTCUART1: "CFG-MSGOUT-UBX_NAV_TIMEUTC_UART1",
	KeyMsgOutNavPVTUART1:     "CFG-MSGOUT-UBX_NAV_PVT_UART1",
	KeyMsgOutNmeaGGAUART1:    "CFG-MSGOUT-NMEA_ID_GGA_UART1",
	KeyMsgOutNmeaGLLUART1:    "CFG-MSGOUT-NMEA_ID_GLL_UART1",
	KeyMsgOutNmeaGSAUART1:    "CFG-MSGOUT-NMEA_ID_GSA_UART1",
	KeyMsgOutNmeaRMCUART1:    "CFG-MSGOUT-NMEA_ID_RMC_UART1",
	KeyMsgOutNmeaVTGUART1:    "CFG-MSGOUT-NMEA_ID_VTG_UART1",
	KeyNavSpgFixMode:         "CFG-NAVSPG-FIXMODE",
	KeyNavSpgDynModel:        "CFG-NAVSPG-DYNMODEL",
	KeyRateMeas:              "CFG-RATE-MEAS",
	KeyRateNav:               "CFG-RATE-NAV",
	KeyRateTimeRef:           "CFG-RATE-TIMEREF",
	KeySignalSBASEnable:      "CFG-SIGNAL-SBAS_ENA",
	KeySignalSBASL1CAEnable:  "CFG-SIGNAL-SBAS_L1CA_ENA",
	KeySignalGalEnable:       "CFG-SIGNAL-GAL_ENA",
	KeySignalGalE1Enable:     "CFG-SIGNAL-GAL_E1_ENA",
	KeySignalBDSEnable:       "CFG-SIGNAL-BDS_ENA",
	KeySignalBDSB1Enable:     "CFG-SIGNAL-BDS_B1_ENA",
	KeySignalBDSB1CEnable:    "CFG-SIGNAL-BDS_B1C_ENA",
	KeySignalQZSSEnable:      "CFG-SIGNAL-QZSS_ENA",
	KeySignalQZSSL1CAEnable:  "CFG-SIGNAL-QZSS_L1CA_ENA",
	KeySignalQZSSL1SEnable:   "CFG-SIGNAL-QZSS_L1S_ENA",
	KeySignalGLOEnable:       "CFG-SIGNAL-GLO_ENA",
	KeySignalGLOL1Enable:     "CFG-SIGNAL-GLO_L1_ENA",
	KeySBASPRNScanMask:       "CFG-SBAS-PRNSCANMASK",
}
