// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/gnomon/pkg/receiver"
	"github.com/Thermoquad/gnomon/pkg/ubx"
)

var (
	configureTimeout int
	configureDryRun  bool
	configureBaud    int
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Apply the receiver setup from the configuration file",
	Long: `Apply a receiver setup: measurement rate, dynamic model, fix mode, SBAS,
constellations and output messages.

The receiver is queried first (MON-VER, MON-GNSS). u-blox 9 and newer
receivers are configured with CFG-VALSET, older ones with legacy CFG frames.
A constellation the receiver does not support is never enabled. The frames
are sent one at a time and the first NAK or timeout stops the job.

With --set-baud, the receiver's UART1 is switched to the new baud rate
after the setup (UBX in and out only) and the host port follows. Only
serial connections can do this.

Exit codes:
  0 - Setup applied
  1 - Receiver rejected the setup or did not answer
  2 - Connection error`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
	configureCmd.Flags().IntVar(&configureTimeout, "timeout", 15, "Timeout in seconds")
	configureCmd.Flags().BoolVar(&configureDryRun, "dry-run", false, "Print the planned frames without sending them")
	configureCmd.Flags().IntVar(&configureBaud, "set-baud", 0, "Switch the receiver and host to this baud rate afterwards")
}

type configurePhase int

const (
	phaseQuery configurePhase = iota
	phaseApply
	phaseBaud
	phaseVerify
)

func (p configurePhase) String() string {
	switch p {
	case phaseQuery:
		return "querying the receiver"
	case phaseApply:
		return "applying the setup"
	case phaseBaud:
		return "switching baud rate"
	}
	return "verifying the new baud rate"
}

func runConfigure(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	settings, err := cfg.Receiver.Settings()
	if err != nil {
		return err
	}

	s, err := openSession(sessionOptions{polling: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer s.Close()

	serialConn, isSerial := s.conn.(*SerialConnection)
	if configureBaud > 0 && !isSerial {
		return errors.New("--set-baud needs a serial connection")
	}

	fmt.Printf("Gnomon - Configure\n")
	fmt.Printf("Connection: %s\n", s.connInfo)
	fmt.Printf("Querying receiver...\n")

	ctx, cancel := signalContext()
	defer cancel()

	phase := phaseQuery
	deadline := time.Now().Add(time.Duration(configureTimeout) * time.Second)
	var switchAt time.Time
	var baudSet bool
	var failure error

	err = s.loop(ctx, func(now time.Time) (bool, error) {
		if now.After(deadline) {
			failure = fmt.Errorf("timed out %s", phase)
			return true, nil
		}
		d := s.driver

		switch phase {
		case phaseQuery:
			caps := d.Capabilities()
			if !caps.VersionKnown || caps.LastUpdate.IsZero() {
				return false, nil
			}
			fmt.Println()
			fmt.Print(formatCapabilities(&caps))
			fmt.Println()

			if configureDryRun {
				printPlan(receiver.PlanSetup(&caps, settings))
				return true, nil
			}
			if err := d.Configure(settings); err != nil {
				failure = err
				return true, nil
			}
			fmt.Printf("Applying setup...\n")
			phase = phaseApply

		case phaseApply:
			r := d.ConfigResult()
			if r.Active {
				return false, nil
			}
			fmt.Printf("Setup %s\n", r)
			if r.Err != nil {
				failure = r.Err
				if r.FailedClass != 0 || r.FailedID != 0 {
					failure = fmt.Errorf("%s: %w", ubx.FormatMessageType(r.FailedClass, r.FailedID), r.Err)
				}
				return true, nil
			}
			if configureBaud == 0 {
				return true, nil
			}
			// The receiver switches as soon as it has the frame, so the
			// ACK usually arrives at the new rate and is lost
			if err := d.SendCommand(ubx.NewCfgPrtUART(uint32(configureBaud), ubx.ProtoUBX, ubx.ProtoUBX)); err != nil {
				return false, nil
			}
			fmt.Printf("Switching to %d baud...\n", configureBaud)
			switchAt = now.Add(200 * time.Millisecond)
			phase = phaseBaud

		case phaseBaud:
			if now.Before(switchAt) {
				return false, nil
			}
			if !baudSet {
				if err := serialConn.SetBaud(configureBaud); err != nil {
					return true, fmt.Errorf("failed to set host baud: %w", err)
				}
				baudSet = true
			}
			if !d.CommandState().Terminal() {
				return false, nil
			}
			if err := d.Poll(ubx.ClassMON, ubx.MsgMonVer); err != nil {
				return false, nil
			}
			phase = phaseVerify

		case phaseVerify:
			switch d.CommandState() {
			case receiver.CommandAcknowledged:
				fmt.Printf("Receiver answering at %d baud\n", configureBaud)
				return true, nil
			case receiver.CommandWaiting:
				return false, nil
			}
			// Retry the poll until the deadline
			_ = d.Poll(ubx.ClassMON, ubx.MsgMonVer)
		}
		return false, nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if failure != nil {
		fmt.Fprintf(os.Stderr, "FAILED: %v\n", failure)
		os.Exit(1)
	}
	return nil
}

// printPlan prints the commands a setup would send
func printPlan(p receiver.Plan) {
	if len(p.Valset) > 0 {
		fmt.Printf("CFG-VALSET, layers %s, %d keys:\n", ubx.FormatLayers(p.Layers), len(p.Valset))
		for _, kv := range p.Valset {
			fmt.Printf("  %s = %d\n", kv.Key, kv.Value)
		}
		return
	}
	fmt.Printf("%d legacy frames:\n", len(p.Frames))
	now := time.Now()
	for _, f := range p.Frames {
		fmt.Print(ubx.FormatFrame(f, now))
	}
}
