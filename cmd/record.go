// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/gnomon/pkg/capture"
	"github.com/Thermoquad/gnomon/pkg/ubx"
)

var (
	recordOutput   string
	recordDuration int
	recordSetup    bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record every frame to a capture file",
	Long: `Drive the receiver and record the frames exchanged with it.

Frames in both directions are written to a CBOR capture file with their
offset from the start of the session. Captures can be played back with the
replay command.

With --setup, the receiver setup from the configuration file is applied
once the receiver version is known, so the configuration exchange is part
of the capture.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "Capture file (default gnomon-<time>.cbor)")
	recordCmd.Flags().IntVar(&recordDuration, "duration", 0, "Stop after this many seconds (0 runs until Ctrl+C)")
	recordCmd.Flags().BoolVar(&recordSetup, "setup", false, "Apply the receiver setup from the configuration file")
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	settings, err := cfg.Receiver.Settings()
	if err != nil {
		return err
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	path := recordOutput
	if path == "" {
		path = fmt.Sprintf("gnomon-%s.cbor", time.Now().Format("20060102-150405"))
	}
	f, err := os.Create(path)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create capture: %w", err)
	}
	defer f.Close()

	rec, err := capture.NewWriter(f, connInfo, time.Now())
	if err != nil {
		conn.Close()
		return err
	}

	var frames uint64
	s := newSession(conn, connInfo, sessionOptions{
		polling:  true,
		recorder: rec,
		onFrame:  func(*ubx.Frame) { frames++ },
	})
	defer s.Close()

	header := rec.Header()
	fmt.Printf("Gnomon - Record\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Capture: %s (session %s)\n", path, header.Session)
	fmt.Printf("Press Ctrl+C to stop\n\n")

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	var deadline time.Time
	if recordDuration > 0 {
		deadline = start.Add(time.Duration(recordDuration) * time.Second)
	}
	setupPending := recordSetup
	nextReport := start.Add(5 * time.Second)

	err = s.loop(ctx, func(now time.Time) (bool, error) {
		if setupPending && s.driver.Capabilities().VersionKnown {
			setupPending = false
			if err := s.driver.Configure(settings); err != nil {
				return true, fmt.Errorf("setup failed: %w", err)
			}
			fmt.Printf("Applying setup for %s\n", s.driver.HWVersion())
		}
		if now.After(nextReport) {
			nextReport = now.Add(5 * time.Second)
			fmt.Printf("%s: %d frames\n", now.Sub(start).Round(time.Second), frames)
			if r := s.driver.ConfigResult(); r.Total > 0 {
				fmt.Printf("  setup %s\n", r)
			}
		}
		return !deadline.IsZero() && now.After(deadline), nil
	})

	fmt.Printf("\nRecorded %d frames in %s\n", frames, time.Since(start).Round(time.Millisecond))
	return err
}
