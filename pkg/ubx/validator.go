// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ubx

import (
	"errors"
	"fmt"
)

// AnomalyType represents different types of frame anomalies
type AnomalyType int

const (
	AnomalyInvalidCount AnomalyType = iota
	AnomalyLengthMismatch
	AnomalyUnsupportedVersion
	AnomalyInvalidPosition
	AnomalyInvalidTime
	AnomalyInvalidValue
	AnomalyChecksumError
	AnomalyDecodeError
)

func (a AnomalyType) String() string {
	switch a {
	case AnomalyInvalidCount:
		return "invalid count"
	case AnomalyLengthMismatch:
		return "length mismatch"
	case AnomalyUnsupportedVersion:
		return "unsupported version"
	case AnomalyInvalidPosition:
		return "invalid position"
	case AnomalyInvalidTime:
		return "invalid time"
	case AnomalyInvalidValue:
		return "invalid value"
	case AnomalyChecksumError:
		return "checksum error"
	case AnomalyDecodeError:
		return "decode error"
	}
	return "unknown"
}

// ValidationError represents a frame validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// Value limits checked by the validator
const (
	maxLatitude  = 90 * 1e7
	maxLongitude = 180 * 1e7
	maxCno       = 99
	maxFixType   = FixTimeOnly
)

// ValidateFrame decodes a frame's payload and checks it for anomalies.
// Returns a slice of validation errors (empty if the frame is valid).
// Frames of classes this package does not decode are not checked.
func ValidateFrame(f *Frame) []ValidationError {
	m := NewMessage(f.Class, f.ID)
	if m == nil {
		return []ValidationError{}
	}
	if err := m.UnmarshalBinary(f.Payload); err != nil {
		return []ValidationError{decodeAnomaly(f, err)}
	}

	errs := []ValidationError{}
	switch msg := m.(type) {
	case *NavPosLLH:
		errs = append(errs, validatePosition(msg.Lat, msg.Lon)...)
	case *NavStatus:
		errs = append(errs, validateFixType(msg.FixType)...)
	case *NavSol:
		errs = append(errs, validateFixType(msg.FixType)...)
	case *NavPVT:
		errs = append(errs, validateFixType(msg.FixType)...)
		errs = append(errs, validatePosition(msg.Lat, msg.Lon)...)
		if msg.DateTimeValid() {
			errs = append(errs, validateDate(msg.Year, msg.Month, msg.Day, msg.Hour, msg.Min, msg.Sec)...)
		}
	case *NavTimeUTC:
		if msg.DateTimeValid() {
			errs = append(errs, validateDate(msg.Year, msg.Month, msg.Day, msg.Hour, msg.Min, msg.Sec)...)
		}
	case *NavSig:
		for i := 0; i < msg.Count; i++ {
			s := &msg.Signals[i]
			if s.Cno > maxCno {
				errs = append(errs, ValidationError{
					Type:    AnomalyInvalidValue,
					Message: fmt.Sprintf("Signal %d: C/N0 out of range (%d dBHz)", i, s.Cno),
					Details: map[string]interface{}{"signal": i, "cno": s.Cno, "max": maxCno},
				})
			}
			if s.Quality > SignalQualityCodeCarrierLockTimeSync3 {
				errs = append(errs, ValidationError{
					Type:    AnomalyInvalidValue,
					Message: fmt.Sprintf("Signal %d: invalid quality indicator %d", i, s.Quality),
					Details: map[string]interface{}{"signal": i, "quality": s.Quality},
				})
			}
		}
	case *NavSat:
		for i := 0; i < msg.Count; i++ {
			errs = append(errs, validateSkyPosition(i, &msg.Satellites[i])...)
		}
	case *NavSVInfo:
		for i := 0; i < msg.Count; i++ {
			errs = append(errs, validateSkyPosition(i, &msg.Satellites[i])...)
		}
	}
	return errs
}

func decodeAnomaly(f *Frame, err error) ValidationError {
	name := FormatMessageType(f.Class, f.ID)
	details := map[string]interface{}{"class": f.Class, "id": f.ID, "length": len(f.Payload)}

	switch {
	case errors.Is(err, ErrLengthMismatch):
		return ValidationError{Type: AnomalyLengthMismatch, Message: fmt.Sprintf("%s: %v", name, err), Details: details}
	case errors.Is(err, ErrTableOverflow):
		return ValidationError{Type: AnomalyInvalidCount, Message: fmt.Sprintf("%s: %v", name, err), Details: details}
	case errors.Is(err, ErrUnsupportedVersion):
		return ValidationError{Type: AnomalyUnsupportedVersion, Message: fmt.Sprintf("%s: %v", name, err), Details: details}
	}
	return ValidationError{Type: AnomalyDecodeError, Message: fmt.Sprintf("%s: %v", name, err), Details: details}
}

func validatePosition(lat, lon int32) []ValidationError {
	errs := []ValidationError{}
	if lat > maxLatitude || lat < -maxLatitude {
		errs = append(errs, ValidationError{
			Type:    AnomalyInvalidPosition,
			Message: fmt.Sprintf("Latitude out of range (%.7f)", float64(lat)/1e7),
			Details: map[string]interface{}{"lat": lat},
		})
	}
	if lon > maxLongitude || lon < -maxLongitude {
		errs = append(errs, ValidationError{
			Type:    AnomalyInvalidPosition,
			Message: fmt.Sprintf("Longitude out of range (%.7f)", float64(lon)/1e7),
			Details: map[string]interface{}{"lon": lon},
		})
	}
	return errs
}

func validateFixType(t FixType) []ValidationError {
	if t > maxFixType {
		return []ValidationError{{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("Invalid fix type %d (max %d)", t, maxFixType),
			Details: map[string]interface{}{"fix_type": t, "max": maxFixType},
		}}
	}
	return nil
}

func validateDate(year uint16, month, day, hour, minute, sec uint8) []ValidationError {
	// sec may be 60 during a leap second
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 60 {
		return []ValidationError{{
			Type: AnomalyInvalidTime,
			Message: fmt.Sprintf("Invalid UTC time %04d-%02d-%02d %02d:%02d:%02d",
				year, month, day, hour, minute, sec),
			Details: map[string]interface{}{"year": year, "month": month, "day": day},
		}}
	}
	return nil
}

func validateSkyPosition(i int, s *SatelliteInfo) []ValidationError {
	errs := []ValidationError{}
	if s.Elev > 90 || s.Elev < -90 {
		errs = append(errs, ValidationError{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("Satellite %d: elevation out of range (%d)", i, s.Elev),
			Details: map[string]interface{}{"satellite": i, "elev": s.Elev},
		})
	}
	if s.Azim > 360 || s.Azim < 0 {
		errs = append(errs, ValidationError{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("Satellite %d: azimuth out of range (%d)", i, s.Azim),
			Details: map[string]interface{}{"satellite": i, "azim": s.Azim},
		})
	}
	return errs
}
