// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ubx

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a two-component firmware or protocol version
type Version struct {
	Major uint8
	Minor uint8
}

// String returns the version as major.minor
func (v Version) String() string {
	return fmt.Sprintf("%d.%02d", v.Major, v.Minor)
}

// Compare returns -1, 0 or 1 as v is less than, equal to, or greater than o
func (v Version) Compare(o Version) int {
	switch {
	case v.Major < o.Major:
		return -1
	case v.Major > o.Major:
		return 1
	case v.Minor < o.Minor:
		return -1
	case v.Minor > o.Minor:
		return 1
	}
	return 0
}

// ParseVersion extracts the last major.minor token from free text such as
// "ROM CORE 3.01 (107888)" or "PROTVER=18.00". Leading and trailing
// punctuation around the token is ignored.
func ParseVersion(s string) (Version, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '=' || r == '(' || r == ')' || r == ',' || r == '\t'
	})

	for i := len(fields) - 1; i >= 0; i-- {
		if v, ok := parseMajorMinor(fields[i]); ok {
			return v, true
		}
	}
	return Version{}, false
}

func parseMajorMinor(tok string) (Version, bool) {
	majorStr, minorStr, ok := strings.Cut(tok, ".")
	if !ok || majorStr == "" || minorStr == "" {
		return Version{}, false
	}
	// "1.2.3" style triples keep their first two components
	if i := strings.IndexByte(minorStr, '.'); i >= 0 {
		minorStr = minorStr[:i]
	}

	major, err := strconv.ParseUint(majorStr, 10, 8)
	if err != nil {
		return Version{}, false
	}
	minor, err := strconv.ParseUint(minorStr, 10, 8)
	if err != nil {
		return Version{}, false
	}
	return Version{Major: uint8(major), Minor: uint8(minor)}, true
}

// ParseHWVersion maps the MON-VER hardware string (hex, e.g. "00080000")
// to a hardware generation. Unrecognized strings yield HWVersionUnknown.
func ParseHWVersion(hw string) HWVersion {
	n, err := strconv.ParseUint(strings.TrimSpace(hw), 16, 32)
	if err != nil {
		return HWVersionUnknown
	}

	switch n {
	case 0x00040005:
		return HWVersionUblox5
	case 0x00040007:
		return HWVersionUblox6
	case 0x00070000:
		return HWVersionUblox7
	case 0x00080000:
		return HWVersionUblox8
	case 0x00190000:
		return HWVersionUblox9
	case 0x000A0000:
		return HWVersionUblox10
	}
	return HWVersionUnknown
}

// String returns the receiver generation name
func (h HWVersion) String() string {
	if h == HWVersionUnknown {
		return "unknown"
	}
	return fmt.Sprintf("u-blox %d", int(h)/100)
}
