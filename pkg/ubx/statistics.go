// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ubx

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks frame statistics and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames      uint64
	ValidFrames      uint64
	ChecksumErrors   uint64
	OversizeFrames   uint64
	DecodeErrors     uint64
	MalformedFrames  uint64
	InvalidCounts    uint64
	LengthMismatches uint64
	BadVersions      uint64
	AnomalousValues  uint64
	UnknownMessages  uint64
	SkippedBytes     uint64

	// Command outcomes
	Acks     uint64
	Naks     uint64
	Timeouts uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a statistics tracker starting at now. All times
// come from the caller, so a simulated or replayed clock gives matching
// rates.
func NewStatistics(now time.Time) *Statistics {
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update updates statistics from a decode attempt. frame is nil when
// decodeErr is set.
func (s *Statistics) Update(now time.Time, frame *Frame, decodeErr error, validationErrors []ValidationError) {
	s.TotalFrames++
	s.Advance(now)

	if decodeErr != nil {
		switch {
		case errors.Is(decodeErr, ErrChecksumMismatch):
			s.ChecksumErrors++
		case errors.Is(decodeErr, ErrPayloadTooLarge):
			s.OversizeFrames++
		default:
			s.DecodeErrors++
		}
		return
	}

	if frame != nil && frame.Class == ClassACK {
		if frame.ID == MsgAckAck {
			s.Acks++
		} else if frame.ID == MsgAckNak {
			s.Naks++
		}
	}
	if frame != nil && !Decodable(frame.Class, frame.ID) && frame.Class != ClassCFG {
		s.UnknownMessages++
	}

	if len(validationErrors) == 0 {
		s.ValidFrames++
		return
	}

	for _, err := range validationErrors {
		switch err.Type {
		case AnomalyInvalidCount:
			s.InvalidCounts++
			s.MalformedFrames++
		case AnomalyLengthMismatch:
			s.LengthMismatches++
			s.MalformedFrames++
		case AnomalyUnsupportedVersion:
			s.BadVersions++
			s.MalformedFrames++
		case AnomalyDecodeError:
			s.DecodeErrors++
		default:
			s.AnomalousValues++
		}
	}
}

// Advance moves LastUpdateTime forward to now; earlier times are ignored
func (s *Statistics) Advance(now time.Time) {
	if now.After(s.LastUpdateTime) {
		s.LastUpdateTime = now
	}
}

// RecordTimeout counts a command that was never answered
func (s *Statistics) RecordTimeout() {
	s.Timeouts++
}

// CalculateRates calculates frame and error rates over StartTime to
// LastUpdateTime
func (s *Statistics) CalculateRates() {
	elapsed := s.LastUpdateTime.Sub(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// Errors returns the total count of frames with any kind of error
func (s *Statistics) Errors() uint64 {
	return s.ChecksumErrors + s.OversizeFrames + s.DecodeErrors + s.MalformedFrames + s.AnomalousValues
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	pct := func(n uint64) float64 {
		if s.TotalFrames == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := s.LastUpdateTime.Sub(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, pct(s.ValidFrames))

	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d (%.1f%%)\n", s.ChecksumErrors, pct(s.ChecksumErrors))
	}
	if s.OversizeFrames > 0 {
		result += fmt.Sprintf("Oversize Frames: %8d (%.1f%%)\n", s.OversizeFrames, pct(s.OversizeFrames))
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d (%.1f%%)\n", s.DecodeErrors, pct(s.DecodeErrors))
	}
	if s.MalformedFrames > 0 {
		result += fmt.Sprintf("Malformed:       %8d (%.1f%%)\n", s.MalformedFrames, pct(s.MalformedFrames))
		if s.InvalidCounts > 0 {
			result += fmt.Sprintf("  Invalid Counts:   %5d\n", s.InvalidCounts)
		}
		if s.LengthMismatches > 0 {
			result += fmt.Sprintf("  Length Mismatch:  %5d\n", s.LengthMismatches)
		}
		if s.BadVersions > 0 {
			result += fmt.Sprintf("  Bad Version:      %5d\n", s.BadVersions)
		}
	}
	if s.AnomalousValues > 0 {
		result += fmt.Sprintf("Anomalous Values:%8d (%.1f%%)\n", s.AnomalousValues, pct(s.AnomalousValues))
	}
	if s.UnknownMessages > 0 {
		result += fmt.Sprintf("Unknown Msgs:    %8d\n", s.UnknownMessages)
	}
	if s.SkippedBytes > 0 {
		result += fmt.Sprintf("Skipped Bytes:   %8d\n", s.SkippedBytes)
	}
	if s.Acks+s.Naks+s.Timeouts > 0 {
		result += fmt.Sprintf("ACK/NAK/Timeout: %d/%d/%d\n", s.Acks, s.Naks, s.Timeouts)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset clears all counters and restarts the statistics at now
func (s *Statistics) Reset(now time.Time) {
	*s = *NewStatistics(now)
}
