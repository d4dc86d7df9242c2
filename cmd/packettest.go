// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/gnomon/pkg/ubx"
)

var (
	packetTestTimeout int
	packetTestFrames  int
)

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connection by waiting for valid UBX frames",
	Long: `Wait for valid UBX frames on the connection until timeout.

NMEA sentences and other bytes are skipped; only complete frames with a
matching checksum count.

Exit codes:
  0 - Frames received before timeout
  1 - Timeout reached first
  2 - Connection error

Useful for checking the baud rate and that UBX output is enabled.`,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().IntVar(&packetTestTimeout, "timeout", 10, "Timeout in seconds")
	packetTestCmd.Flags().IntVar(&packetTestFrames, "frames", 1, "Number of valid frames to wait for")
}

// frameWait is the outcome of waitForFrames
type frameWait struct {
	frames  []*ubx.Frame
	skipped uint64
	first   time.Duration
}

// waitForFrames reads r until want frames decode, ctx ends, or r fails.
// The reader goroutine is left to exit when r is closed.
func waitForFrames(ctx context.Context, r io.Reader, want int) (frameWait, error) {
	type result struct {
		frame   *ubx.Frame
		skipped uint64
		err     error
	}
	results := make(chan result, want+1)
	start := time.Now()

	go func() {
		decoder := ubx.NewDecoder()
		buf := make([]byte, 256)
		found := 0
		for found < want {
			n, err := r.Read(buf)
			if err != nil {
				results <- result{err: err}
				return
			}
			for _, b := range buf[:n] {
				frame, _ := decoder.DecodeByte(b)
				if frame == nil {
					continue
				}
				results <- result{frame: frame.Clone(), skipped: decoder.Skipped()}
				if found++; found == want {
					return
				}
			}
		}
	}()

	var w frameWait
	for len(w.frames) < want {
		select {
		case res := <-results:
			if res.err != nil {
				return w, res.err
			}
			if len(w.frames) == 0 {
				w.first = time.Since(start)
				w.skipped = res.skipped
			}
			w.frames = append(w.frames, res.frame)
		case <-ctx.Done():
			return w, ctx.Err()
		}
	}
	return w, nil
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	if packetTestFrames < 1 {
		return fmt.Errorf("--frames must be at least 1")
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Gnomon - Frame Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Waiting up to %ds for %d valid UBX frame(s)...\n\n", packetTestTimeout, packetTestFrames)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(packetTestTimeout)*time.Second)
	defer cancel()

	w, err := waitForFrames(ctx, conn, packetTestFrames)
	for i, f := range w.frames {
		fmt.Printf("[%d] %-12s class 0x%02X id 0x%02X, %d byte payload, checksum %02X %02X\n",
			i+1, ubx.FormatMessageType(f.Class, f.ID), f.Class, f.ID, f.Length(), f.CkA, f.CkB)
	}

	switch {
	case err == nil:
		fmt.Printf("\nSUCCESS: first frame after %v", w.first.Round(time.Millisecond))
		if w.skipped > 0 {
			fmt.Printf(" (%d non-UBX bytes skipped before sync)", w.skipped)
		}
		fmt.Println()
		os.Exit(0)
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(os.Stderr, "TIMEOUT: %d of %d frames within %d seconds\n", len(w.frames), packetTestFrames, packetTestTimeout)
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)
	}
	return nil
}
