// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture records UBX traffic to a file and plays it back.
//
// A capture is a CBOR sequence: one Header followed by any number of
// Records. Each record holds one complete wire frame and its offset from
// the start of the session.
package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// FormatName and FormatVersion identify a capture stream
const (
	FormatName    = "gnomon-capture"
	FormatVersion = 1
)

// Errors returned by the reader and writer
var (
	ErrBadHeader    = errors.New("not a capture stream")
	ErrBadVersion   = errors.New("unsupported capture version")
	ErrWriterClosed = errors.New("capture writer is closed")
	ErrEmptyFrame   = errors.New("empty frame")
)

// Direction of a recorded frame relative to this host
type Direction uint8

const (
	FromReceiver Direction = iota
	ToReceiver
)

func (d Direction) String() string {
	if d == ToReceiver {
		return "tx"
	}
	return "rx"
}

// Header opens every capture
type Header struct {
	Format  string `cbor:"1,keyasint"`
	Version int    `cbor:"2,keyasint"`
	Session string `cbor:"3,keyasint"`
	Started int64  `cbor:"4,keyasint"` // unix nanoseconds
	Source  string `cbor:"5,keyasint,omitempty"`
}

// StartTime returns Started as a time
func (h *Header) StartTime() time.Time {
	return time.Unix(0, h.Started)
}

// Record is one captured frame
type Record struct {
	At    time.Duration `cbor:"1,keyasint"`
	Dir   Direction     `cbor:"2,keyasint"`
	Frame []byte        `cbor:"3,keyasint"`
}

// ============================================================
// Writer
// ============================================================

// Writer appends records to a capture stream
type Writer struct {
	bw     *bufio.Writer
	enc    *cbor.Encoder
	header Header
	start  time.Time
	closed bool
}

// NewWriter writes a header for a new session to w. source describes where
// the frames come from (a port name or URL).
func NewWriter(w io.Writer, source string, now time.Time) (*Writer, error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	cw := &Writer{
		bw:    bw,
		enc:   cbor.NewEncoder(bw),
		start: now,
		header: Header{
			Format:  FormatName,
			Version: FormatVersion,
			Session: uuid.New().String(),
			Started: now.UnixNano(),
			Source:  source,
		},
	}
	if err := cw.enc.Encode(&cw.header); err != nil {
		return nil, fmt.Errorf("failed to write capture header: %w", err)
	}
	return cw, nil
}

// Header returns the session header
func (w *Writer) Header() Header {
	return w.header
}

// WriteFrame records the wire bytes of one frame seen at now
func (w *Writer) WriteFrame(now time.Time, dir Direction, frame []byte) error {
	if w.closed {
		return ErrWriterClosed
	}
	if len(frame) == 0 {
		return ErrEmptyFrame
	}

	at := now.Sub(w.start)
	if at < 0 {
		at = 0
	}
	if err := w.enc.Encode(&Record{At: at, Dir: dir, Frame: frame}); err != nil {
		return fmt.Errorf("failed to write capture record: %w", err)
	}
	return nil
}

// Flush writes buffered records to the underlying writer
func (w *Writer) Flush() error {
	if w.closed {
		return nil
	}
	return w.bw.Flush()
}

// Close flushes the stream. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.bw.Flush()
}

// ============================================================
// Reader
// ============================================================

// Reader reads a capture stream record by record
type Reader struct {
	dec    *cbor.Decoder
	header Header
}

// NewReader reads and checks the stream header
func NewReader(r io.Reader) (*Reader, error) {
	dec := cbor.NewDecoder(bufio.NewReader(r))

	var h Header
	if err := dec.Decode(&h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if h.Format != FormatName {
		return nil, fmt.Errorf("%w: format %q", ErrBadHeader, h.Format)
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, h.Version)
	}
	if _, err := uuid.Parse(h.Session); err != nil {
		return nil, fmt.Errorf("%w: session id: %v", ErrBadHeader, err)
	}

	return &Reader{dec: dec, header: h}, nil
}

// Header returns the session header
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next record, or io.EOF at the end of the stream
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		return Record{}, err
	}
	if len(rec.Frame) == 0 {
		return Record{}, ErrEmptyFrame
	}
	return rec, nil
}

// ReadAll returns every remaining record
func (r *Reader) ReadAll() ([]Record, error) {
	var recs []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
}
