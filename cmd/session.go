// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/gnomon/pkg/capture"
	"github.com/Thermoquad/gnomon/pkg/receiver"
	"github.com/Thermoquad/gnomon/pkg/ubx"
)

// updateInterval is how often the driver's timers are serviced
const updateInterval = 20 * time.Millisecond

// session owns a connection and the driver fed from it. The reader
// goroutine only moves bytes; every driver call happens on the goroutine
// running loop.
type session struct {
	conn     Connection
	connInfo string
	driver   *receiver.Driver
	recorder *capture.Writer

	rx   chan []byte
	errc chan error
}

type sessionOptions struct {
	polling  bool
	recorder *capture.Writer
	onFrame  func(*ubx.Frame)
}

// newSession wraps conn in a driver. Frames in both directions go to the
// recorder when one is set.
func newSession(conn Connection, connInfo string, opts sessionOptions) *session {
	s := &session{
		conn:     conn,
		connInfo: connInfo,
		recorder: opts.recorder,
		rx:       make(chan []byte, 64),
		errc:     make(chan error, 1),
	}

	var w io.Writer = conn
	if s.recorder != nil {
		w = &recordingWriter{w: conn, rec: s.recorder}
	}

	driverOpts := []receiver.Option{
		receiver.WithCapabilityPolling(opts.polling),
		receiver.WithFrameHandler(func(f *ubx.Frame) {
			if s.recorder != nil {
				if err := s.recorder.WriteFrame(time.Now(), capture.FromReceiver, f.AppendWire(nil)); err != nil {
					log.Printf("Capture error: %v", err)
				}
			}
			if opts.onFrame != nil {
				opts.onFrame(f)
			}
		}),
	}
	if verbose {
		driverOpts = append(driverOpts, receiver.WithLogger(log.New(os.Stderr, "driver: ", log.LstdFlags|log.Lmicroseconds)))
	}
	s.driver = receiver.New(w, driverOpts...)
	return s
}

// openSession opens the connection named by the flags
func openSession(opts sessionOptions) (*session, error) {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return nil, err
	}
	return newSession(conn, connInfo, opts), nil
}

func (s *session) Close() error {
	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			log.Printf("Capture error: %v", err)
		}
	}
	return s.conn.Close()
}

// startReader copies connection bytes into rx until ctx is done or the
// connection fails
func (s *session) startReader(ctx context.Context) {
	go func() {
		buf := make([]byte, 256)
		for {
			if ctx.Err() != nil {
				return
			}
			n, err := s.conn.Read(buf)
			if err != nil {
				if errors.Is(err, ErrConnectionClosed) || errors.Is(err, io.EOF) {
					s.errc <- ErrConnectionClosed
					return
				}
				// Transient serial errors
				log.Printf("Read error: %v", err)
				time.Sleep(10 * time.Millisecond)
				continue
			}
			if n == 0 {
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case s.rx <- data:
			case <-ctx.Done():
				return
			}
		}
	}()
}

// loop feeds received bytes to the driver and services its timers. tick is
// called after every Update; returning done ends the loop. loop returns
// nil when ctx is cancelled.
func (s *session) loop(ctx context.Context, tick func(now time.Time) (done bool, err error)) error {
	s.startReader(ctx)

	ticker := time.NewTicker(updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-s.errc:
			return err
		case data := <-s.rx:
			s.driver.Receive(data)
		case now := <-ticker.C:
			s.driver.Update()
			if tick == nil {
				continue
			}
			done, err := tick(now)
			if err != nil || done {
				return err
			}
		}
	}
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// recordingWriter records outgoing frames before writing them
type recordingWriter struct {
	w   io.Writer
	rec *capture.Writer
}

func (r *recordingWriter) Write(p []byte) (int, error) {
	if err := r.rec.WriteFrame(time.Now(), capture.ToReceiver, p); err != nil {
		log.Printf("Capture error: %v", err)
	}
	return r.w.Write(p)
}
