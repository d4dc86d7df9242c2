// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/gnomon/pkg/capture"
	"github.com/Thermoquad/gnomon/pkg/receiver"
	"github.com/Thermoquad/gnomon/pkg/ubx"
)

var (
	replaySpeed float64
	replayLoop  bool
	replayTx    bool
	replayQuiet bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture>",
	Short: "Play a capture file back through the driver",
	Long: `Feed the received frames of a capture file into a driver, keeping the
recorded timing, and print each frame as it is decoded.

Nothing is sent anywhere; the driver's output is discarded. At the end the
navigation solution, capabilities and frame statistics are printed.

With --tx, frames that were sent to the receiver are printed too.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1, "Playback speed (2 is twice real time)")
	replayCmd.Flags().BoolVar(&replayLoop, "loop", false, "Restart at the end of the capture")
	replayCmd.Flags().BoolVar(&replayTx, "tx", false, "Also print frames sent to the receiver")
	replayCmd.Flags().BoolVarP(&replayQuiet, "quiet", "q", false, "Only print the summary")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := capture.NewReader(f)
	if err != nil {
		return err
	}
	records, err := r.ReadAll()
	if err != nil {
		return err
	}
	header := r.Header()

	fmt.Printf("Gnomon - Replay\n")
	fmt.Printf("Capture: %s\n", args[0])
	fmt.Printf("Session: %s\n", header.Session)
	fmt.Printf("Source: %s\n", header.Source)
	fmt.Printf("Started: %s\n", header.StartTime().Format(time.RFC3339))
	fmt.Printf("Records: %d\n\n", len(records))

	// The driver runs on capture time so rates match the recording at any
	// playback speed. Each loop continues where the previous one ended.
	clock := header.StartTime()
	var base, last time.Duration
	opts := []receiver.Option{
		receiver.WithClock(func() time.Time { return clock }),
		receiver.WithCapabilityPolling(false),
		receiver.WithFrameHandler(func(fr *ubx.Frame) {
			if !replayQuiet {
				fmt.Print(ubx.FormatFrame(fr, clock))
			}
		}),
	}
	d := receiver.New(io.Discard, opts...)

	play := capture.PlayOptions{Speed: replaySpeed, Loop: replayLoop}
	if !replayTx {
		dir := capture.FromReceiver
		play.Dir = &dir
	}

	ctx, cancel := signalContext()
	defer cancel()

	err = capture.Play(ctx, records, play, func(rec capture.Record) error {
		if rec.At < last {
			base += last
		}
		last = rec.At
		clock = header.StartTime().Add(base + rec.At)

		if rec.Dir == capture.ToReceiver {
			if replayQuiet {
				return nil
			}
			fr, err := ubx.DecodeFrame(rec.Frame)
			if err != nil {
				fmt.Printf("[tx] undecodable frame: %v\n", err)
				return nil
			}
			fmt.Print("[tx] " + ubx.FormatFrame(fr, clock))
			return nil
		}
		d.Receive(rec.Frame)
		d.Update()
		return nil
	})
	if err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}

	nav := d.Navigation()
	caps := d.Capabilities()
	fmt.Println()
	fmt.Print(formatNavigation(&nav))
	fmt.Print(formatCapabilities(&caps))
	fmt.Printf("Signals tracked: %d\n", d.Signals().Count())
	fmt.Print(d.Statistics().String())
	return nil
}
