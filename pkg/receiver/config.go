// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package receiver

import (
	"errors"
	"fmt"

	"github.com/Thermoquad/gnomon/pkg/ubx"
)

// Configuration errors
var (
	ErrConfigBusy      = errors.New("configuration already in progress")
	ErrEmptyBatch      = errors.New("empty configuration batch")
	ErrCommandTooShort = errors.New("command shorter than a frame")
)

// ConfigResult reports the progress or outcome of a configuration job
type ConfigResult struct {
	Active      bool
	Total       int   // frames in the job
	Sent        int   // frames written to the receiver
	Succeeded   int   // frames acknowledged
	Err         error // why the job stopped early, nil on success
	FailedClass uint8
	FailedID    uint8
}

// Done reports whether a job has finished, successfully or not
func (r ConfigResult) Done() bool {
	return !r.Active && r.Total > 0
}

func (r ConfigResult) String() string {
	switch {
	case r.Active:
		return fmt.Sprintf("in progress: %d/%d frames acknowledged", r.Succeeded, r.Total)
	case r.Err != nil:
		return fmt.Sprintf("aborted after %d/%d frames: %v", r.Succeeded, r.Total, r.Err)
	case r.Total > 0:
		return fmt.Sprintf("applied %d/%d frames", r.Succeeded, r.Total)
	}
	return "idle"
}

// configEngine sends a list of ACKed frames strictly one at a time.
// A rejection or timeout abandons the rest of the list.
type configEngine struct {
	frames []*ubx.Frame
	next   int
	result ConfigResult
}

func (e *configEngine) active() bool {
	return e.result.Active
}

func (e *configEngine) load(frames []*ubx.Frame) error {
	if e.result.Active {
		return ErrConfigBusy
	}
	if len(frames) == 0 {
		return ErrEmptyBatch
	}
	e.frames = frames
	e.next = 0
	e.result = ConfigResult{Active: true, Total: len(frames)}
	return nil
}

// pending returns the frame to send next, nil when one is in flight or the
// job is over.
func (e *configEngine) pending() *ubx.Frame {
	if !e.result.Active || e.next != e.result.Sent || e.next >= len(e.frames) {
		return nil
	}
	return e.frames[e.next]
}

func (e *configEngine) sent() {
	e.result.Sent++
}

// resolve records the outcome of the frame in flight
func (e *configEngine) resolve(state CommandState) {
	if !e.result.Active {
		return
	}
	f := e.frames[e.next]
	if state != CommandAcknowledged {
		e.result.Err = fmt.Errorf("frame %d of %d (%s): %w",
			e.next+1, len(e.frames), ubx.FormatMessageType(f.Class, f.ID), state.Err())
		e.result.FailedClass = f.Class
		e.result.FailedID = f.ID
		e.finish()
		return
	}

	e.result.Succeeded++
	e.next++
	if e.next >= len(e.frames) {
		e.finish()
	}
}

// fail aborts the job when a frame could not even be written
func (e *configEngine) fail(err error) {
	e.result.Err = err
	e.finish()
}

func (e *configEngine) finish() {
	e.result.Active = false
	e.frames = nil
}

// valsetHeader picks the header format for the receiver generation.
// u-blox 10 and newer take the transactional header.
func valsetHeader(hw ubx.HWVersion, layers uint8) ubx.ConfigHeader {
	if hw >= ubx.HWVersionUblox10 {
		return ubx.ConfigHeader{Version: ubx.ValsetVersionTransactional, Layers: layers}
	}
	return ubx.ConfigHeader{Version: ubx.ValsetVersionPlain, Layers: layers}
}

// buildValsetFrames partitions entries by width and chunk size and builds
// one CFG-VALSET frame per group. With the transactional header a
// multi-frame batch is wrapped in begin/continue/apply so the receiver
// applies it atomically.
func buildValsetFrames(hw ubx.HWVersion, layers uint8, entries []ubx.KeyValue) ([]*ubx.Frame, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}
	groups, err := ubx.SplitBatch(entries)
	if err != nil {
		return nil, err
	}

	header := valsetHeader(hw, layers)
	frames := make([]*ubx.Frame, 0, len(groups))
	for i, group := range groups {
		h := header
		if h.Version == ubx.ValsetVersionTransactional && len(groups) > 1 {
			switch i {
			case 0:
				h.Transaction = ubx.TransactionBegin
			case len(groups) - 1:
				h.Transaction = ubx.TransactionApply
			default:
				h.Transaction = ubx.TransactionContinue
			}
		}
		f, err := ubx.NewValset(h, group)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}
