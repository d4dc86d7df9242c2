// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ubx

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatFrame formats a frame into a human-readable string
func FormatFrame(f *Frame, at time.Time) string {
	result := fmt.Sprintf("[%s] %s (0x%02X 0x%02X) len=%d\n",
		at.Format("15:04:05.000"), FormatMessageType(f.Class, f.ID), f.Class, f.ID, len(f.Payload))

	if f.Class == ClassCFG && f.ID == MsgCfgValset {
		return result + formatValset(f.Payload)
	}
	if len(f.Payload) == 0 {
		return result + "  (poll)\n"
	}

	m, err := Decode(f)
	if err != nil {
		return result + fmt.Sprintf("  [decode error: %v]\n", err)
	}
	return result + FormatMessage(m)
}

var messageNames = map[uint16]string{
	msgKey(ClassNAV, MsgNavPosLLH):  "NAV-POSLLH",
	msgKey(ClassNAV, MsgNavStatus):  "NAV-STATUS",
	msgKey(ClassNAV, MsgNavSol):     "NAV-SOL",
	msgKey(ClassNAV, MsgNavPVT):     "NAV-PVT",
	msgKey(ClassNAV, MsgNavVelNED):  "NAV-VELNED",
	msgKey(ClassNAV, MsgNavTimeUTC): "NAV-TIMEUTC",
	msgKey(ClassNAV, MsgNavSVInfo):  "NAV-SVINFO",
	msgKey(ClassNAV, MsgNavSat):     "NAV-SAT",
	msgKey(ClassNAV, MsgNavSig):     "NAV-SIG",
	msgKey(ClassACK, MsgAckNak):     "ACK-NAK",
	msgKey(ClassACK, MsgAckAck):     "ACK-ACK",
	msgKey(ClassCFG, MsgCfgPrt):     "CFG-PRT",
	msgKey(ClassCFG, MsgCfgMsg):     "CFG-MSG",
	msgKey(ClassCFG, MsgCfgRate):    "CFG-RATE",
	msgKey(ClassCFG, MsgCfgSBAS):    "CFG-SBAS",
	msgKey(ClassCFG, MsgCfgNav5):    "CFG-NAV5",
	msgKey(ClassCFG, MsgCfgGNSS):    "CFG-GNSS",
	msgKey(ClassCFG, MsgCfgValset):  "CFG-VALSET",
	msgKey(ClassMON, MsgMonVer):     "MON-VER",
	msgKey(ClassMON, MsgMonGNSS):    "MON-GNSS",
}

func msgKey(class, id uint8) uint16 {
	return uint16(class)<<8 | uint16(id)
}

// FormatMessageType returns the human-readable name for a class/id pair
func FormatMessageType(class, id uint8) string {
	if name, ok := messageNames[msgKey(class, id)]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseMessageType returns the class/id for a message name such as
// "NAV-PVT", or for a hex pair such as "0A04" or "0x0A,0x04"
func ParseMessageType(name string) (class, id uint8, ok bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for key, n := range messageNames {
		if n == upper {
			return uint8(key >> 8), uint8(key), true
		}
	}

	clean := strings.NewReplacer("0X", "", " ", "", ",", "", ":", "").Replace(upper)
	if len(clean) != 4 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(clean, 16, 16)
	if err != nil {
		return 0, 0, false
	}
	return uint8(v >> 8), uint8(v), true
}

// FormatMessage formats a decoded message's fields
func FormatMessage(m Message) string {
	switch msg := m.(type) {
	case *NavPosLLH:
		return fmt.Sprintf("  iTOW=%d Lat=%s Lon=%s Height=%.2fm MSL=%.2fm hAcc=%.2fm vAcc=%.2fm\n",
			msg.ITOW, formatDegrees(msg.Lat), formatDegrees(msg.Lon),
			mm(msg.HeightEllipsoid), mm(msg.HeightMSL), mm(int32(msg.HAcc)), mm(int32(msg.VAcc)))

	case *NavStatus:
		return fmt.Sprintf("  iTOW=%d Fix=%s Valid=%v TTFF=%s Uptime=%s\n",
			msg.ITOW, FormatFixType(msg.FixType), msg.FixValid(),
			formatDuration(uint64(msg.TTFF)), formatDuration(uint64(msg.Uptime)))

	case *NavSol:
		return fmt.Sprintf("  iTOW=%d Week=%d Fix=%s Valid=%v SVs=%d pAcc=%.2fm PDOP=%.2f\n",
			msg.ITOW, msg.Week, FormatFixType(msg.FixType), msg.FixValid(), msg.NumSV,
			float64(msg.PAcc)/100, float64(msg.PDOP)/100)

	case *NavPVT:
		result := fmt.Sprintf("  %04d-%02d-%02d %02d:%02d:%02d UTC (valid=%v) Fix=%s SVs=%d\n",
			msg.Year, msg.Month, msg.Day, msg.Hour, msg.Min, msg.Sec, msg.DateTimeValid(),
			FormatFixType(msg.FixType), msg.NumSV)
		result += fmt.Sprintf("  Lat=%s Lon=%s MSL=%.2fm hAcc=%.2fm\n",
			formatDegrees(msg.Lat), formatDegrees(msg.Lon), mm(msg.HeightMSL), mm(int32(msg.HAcc)))
		result += fmt.Sprintf("  Vel N=%.2f E=%.2f D=%.2f m/s, Ground=%.2f m/s, Heading=%.1f°, PDOP=%.2f\n",
			mm(msg.VelN), mm(msg.VelE), mm(msg.VelD), mm(msg.GroundSpeed),
			float64(msg.HeadingMotion)/1e5, float64(msg.PDOP)/100)
		return result

	case *NavVelNED:
		return fmt.Sprintf("  iTOW=%d Vel N=%.2f E=%.2f D=%.2f m/s, Ground=%.2f m/s, Heading=%.1f°\n",
			msg.ITOW, cm(msg.VelN), cm(msg.VelE), cm(msg.VelD), cm(int32(msg.GroundSpeed)), float64(msg.Heading)/1e5)

	case *NavTimeUTC:
		return fmt.Sprintf("  %04d-%02d-%02d %02d:%02d:%02d UTC (valid=%v) tAcc=%dns\n",
			msg.Year, msg.Month, msg.Day, msg.Hour, msg.Min, msg.Sec, msg.DateTimeValid(), msg.TAcc)

	case *NavSig:
		var b strings.Builder
		fmt.Fprintf(&b, "  iTOW=%d Signals=%d\n", msg.ITOW, msg.Count)
		for i := 0; i < msg.Count; i++ {
			s := &msg.Signals[i]
			fmt.Fprintf(&b, "    %-8s sv=%3d sig=%d C/N0=%2d Quality=%s Health=%s Used=%v\n",
				FormatGnss(s.GnssID), s.SvID, s.SigID, s.Cno,
				FormatSignalQuality(s.Quality), FormatSignalHealth(s.Health()), s.PRUsed())
		}
		return b.String()

	case *NavSat:
		return formatSatellites(msg.ITOW, msg.Satellites[:msg.Count])

	case *NavSVInfo:
		return formatSatellites(msg.ITOW, msg.Satellites[:msg.Count])

	case *Ack:
		return fmt.Sprintf("  For: %s (0x%02X 0x%02X)\n", FormatMessageType(msg.Class, msg.ID), msg.Class, msg.ID)

	case *MonVer:
		result := fmt.Sprintf("  SW: %s\n  HW: %s (%s)\n", msg.Software, msg.Hardware, msg.HWVersion())
		for _, ext := range msg.Extensions {
			result += fmt.Sprintf("  Ext: %s\n", ext)
		}
		return result

	case *MonGNSS:
		return fmt.Sprintf("  Supported=%s Default=%s Enabled=%s MaxConcurrent=%d\n",
			formatGnssMask(msg.Supported), formatGnssMask(msg.Default), formatGnssMask(msg.Enabled), msg.MaxConcurrent)
	}
	return ""
}

func formatSatellites(itow uint32, sats []SatelliteInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  iTOW=%d Satellites=%d\n", itow, len(sats))
	for i := range sats {
		s := &sats[i]
		fmt.Fprintf(&b, "    %-8s sv=%3d C/N0=%2d Elev=%3d° Azim=%3d°\n",
			FormatGnss(s.GnssID), s.SvID, s.Cno, s.Elev, s.Azim)
	}
	return b.String()
}

func formatValset(payload []byte) string {
	h, entries, err := ParseValset(payload)
	if err != nil {
		return fmt.Sprintf("  [decode error: %v]\n", err)
	}
	result := fmt.Sprintf("  Version=%d Layers=%s Transaction=%d Entries=%d\n",
		h.Version, FormatLayers(h.Layers), h.Transaction, len(entries))
	for _, e := range entries {
		result += fmt.Sprintf("    %s = %d\n", e.Key, e.Value)
	}
	return result
}

// FormatFixType returns the name of a fix type
func FormatFixType(t FixType) string {
	switch t {
	case FixNone:
		return "NONE"
	case FixDeadReckoning:
		return "DR"
	case Fix2D:
		return "2D"
	case Fix3D:
		return "3D"
	case FixGPSDeadReckoning:
		return "GPS+DR"
	case FixTimeOnly:
		return "TIME"
	}
	return fmt.Sprintf("UNKNOWN(%d)", t)
}

// FormatGnss returns the constellation name of a GNSS id
func FormatGnss(id uint8) string {
	switch id {
	case GnssGPS:
		return "GPS"
	case GnssSBAS:
		return "SBAS"
	case GnssGalileo:
		return "Galileo"
	case GnssBeiDou:
		return "BeiDou"
	case GnssIMES:
		return "IMES"
	case GnssQZSS:
		return "QZSS"
	case GnssGLONASS:
		return "GLONASS"
	}
	return fmt.Sprintf("GNSS(%d)", id)
}

// FormatSignalQuality returns a short label for a signal quality indicator
func FormatSignalQuality(q SignalQuality) string {
	switch q {
	case SignalQualityNoSignal:
		return "none"
	case SignalQualitySearching:
		return "search"
	case SignalQualityAcquired:
		return "acquired"
	case SignalQualityUnusable:
		return "unusable"
	case SignalQualityCodeLockTimeSync:
		return "code"
	case SignalQualityCodeCarrierLockTimeSync,
		SignalQualityCodeCarrierLockTimeSync2,
		SignalQualityCodeCarrierLockTimeSync3:
		return "carrier"
	}
	return fmt.Sprintf("q%d", q)
}

// FormatSignalHealth returns a short label for a signal health value
func FormatSignalHealth(h SignalHealth) string {
	switch h {
	case SignalHealthHealthy:
		return "healthy"
	case SignalHealthUnhealthy:
		return "unhealthy"
	}
	return "unknown"
}

// FormatLayers returns the configuration layer names set in mask
func FormatLayers(mask uint8) string {
	var names []string
	if mask&LayerRAM != 0 {
		names = append(names, "RAM")
	}
	if mask&LayerBBR != 0 {
		names = append(names, "BBR")
	}
	if mask&LayerFlash != 0 {
		names = append(names, "Flash")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

func formatGnssMask(mask uint8) string {
	var names []string
	if mask&MonGnssGPS != 0 {
		names = append(names, "GPS")
	}
	if mask&MonGnssGLONASS != 0 {
		names = append(names, "GLONASS")
	}
	if mask&MonGnssBeiDou != 0 {
		names = append(names, "BeiDou")
	}
	if mask&MonGnssGalileo != 0 {
		names = append(names, "Galileo")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

func formatDegrees(v int32) string {
	return fmt.Sprintf("%.7f°", float64(v)/1e7)
}

func mm(v int32) float64 { return float64(v) / 1000 }
func cm(v int32) float64 { return float64(v) / 100 }

// formatDuration formats milliseconds as a compact duration
func formatDuration(ms uint64) string {
	d := time.Duration(ms) * time.Millisecond
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", ms)
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
