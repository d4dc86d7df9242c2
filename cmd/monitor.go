// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/gnomon/pkg/receiver"
	"github.com/Thermoquad/gnomon/pkg/ubx"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
	passive       bool
)

var monitorCmd = &cobra.Command{
	Use:     "monitor",
	Aliases: []string{"error_detection"},
	Short:   "Monitor the navigation solution, signals and frame errors",
	Long: `Drive the receiver and display its navigation solution, tracked signals,
capabilities and frame statistics.

Each frame is validated and the following are reported:
  - Checksum and length errors
  - Malformed reports (bad counts, length mismatches, unknown versions)
  - Anomalous values (position or time out of range, bad C/N0)
  - Command outcomes (ACK, NAK, timeout)

The receiver's version and supported constellations are polled every few
seconds unless --passive is given, in which case nothing is sent.

By default, only errors are displayed in text mode. Use --show-all to
display every frame too.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
	monitorCmd.Flags().BoolVar(&passive, "passive", false, "Never send anything to the receiver")
}

// monitorEvent is a frame-level event the monitor reports
type monitorEvent struct {
	at      time.Time
	message string
	isError bool
}

// frameEvents returns the events a valid frame produces
func frameEvents(f *ubx.Frame, at time.Time, all bool) []monitorEvent {
	var events []monitorEvent
	name := ubx.FormatMessageType(f.Class, f.ID)

	for _, v := range ubx.ValidateFrame(f) {
		msg := v.Message
		if !strings.HasPrefix(msg, name) {
			msg = name + ": " + msg
		}
		events = append(events, monitorEvent{at: at, message: msg, isError: true})
	}
	if f.Class == ubx.ClassACK && len(f.Payload) >= 2 {
		verb := "ACK"
		if f.ID == ubx.MsgAckNak {
			verb = "NAK"
		}
		events = append(events, monitorEvent{at: at, message: fmt.Sprintf("%s %s", verb, ubx.FormatMessageType(f.Payload[0], f.Payload[1]))})
	}
	if len(events) == 0 && all {
		events = append(events, monitorEvent{at: at, message: fmt.Sprintf("%s (valid)", name)})
	}
	return events
}

// monitorSnapshot is a copy of driver state handed to the display
type monitorSnapshot struct {
	nav     receiver.Navigation
	signals []ubx.SignalInfo
	caps    receiver.Capabilities
	stats   ubx.Statistics
	command receiver.CommandState
}

// takeSnapshot copies driver state; the result shares nothing with d
func takeSnapshot(d *receiver.Driver) monitorSnapshot {
	return monitorSnapshot{
		nav:     d.Navigation(),
		signals: d.Signals().AppendSignals(nil),
		caps:    d.Capabilities(),
		stats:   *d.Statistics(),
		command: d.CommandState(),
	}
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if useTUI {
		return runTUIMode()
	}
	return runTextMode()
}

// runTUIMode runs the monitor in a bubbletea program. The driver stays on
// the session goroutine; the model only receives copies.
func runTUIMode() error {
	var p *tea.Program

	s, err := openSession(sessionOptions{
		polling: !passive,
		onFrame: func(f *ubx.Frame) {
			if events := frameEvents(f, time.Now(), showAll); len(events) > 0 && p != nil {
				p.Send(eventsMsg(events))
			}
		},
	})
	if err != nil {
		return err
	}
	defer s.Close()

	m := initialModel(s.connInfo, statsInterval, showAll, passive)
	p = tea.NewProgram(m, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		var lastChecksum uint64
		var lastUpdate time.Time

		err := s.loop(ctx, func(now time.Time) (bool, error) {
			stats := s.driver.Statistics()
			if stats.ChecksumErrors > lastChecksum {
				p.Send(eventsMsg{{at: now, message: fmt.Sprintf("%d checksum error(s)", stats.ChecksumErrors-lastChecksum), isError: true}})
				lastChecksum = stats.ChecksumErrors
			}
			if now.Sub(lastUpdate) >= 200*time.Millisecond {
				lastUpdate = now
				p.Send(snapshotMsg(takeSnapshot(s.driver)))
			}
			return false, nil
		})
		if err != nil {
			p.Send(connectionLostMsg{err: err})
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runTextMode prints events as they happen and periodic summaries
func runTextMode() error {
	s, err := openSession(sessionOptions{
		polling: !passive,
		onFrame: func(f *ubx.Frame) {
			for _, e := range frameEvents(f, time.Now(), showAll) {
				printEvent(e)
			}
		},
	})
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Gnomon - Monitor\n")
	fmt.Printf("Connection: %s\n", s.connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, cancel := signalContext()
	defer cancel()

	interval := time.Duration(statsInterval) * time.Second
	next := time.Now().Add(interval)
	var lastChecksum uint64
	var lastCaps time.Time

	return s.loop(ctx, func(now time.Time) (bool, error) {
		stats := s.driver.Statistics()
		if stats.ChecksumErrors > lastChecksum {
			printEvent(monitorEvent{at: now, message: fmt.Sprintf("%d checksum error(s)", stats.ChecksumErrors-lastChecksum), isError: true})
			lastChecksum = stats.ChecksumErrors
		}
		if updated := s.driver.CapabilitiesUpdated(); updated.After(lastCaps) {
			lastCaps = updated
			caps := s.driver.Capabilities()
			fmt.Print(formatCapabilities(&caps))
			fmt.Println()
		}
		if now.Before(next) {
			return false, nil
		}
		next = now.Add(interval)

		nav := s.driver.Navigation()
		fmt.Println()
		fmt.Print(formatNavigation(&nav))
		fmt.Printf("Signals tracked: %d\n", s.driver.Signals().Count())
		fmt.Print(stats.String())
		fmt.Println()
		return false, nil
	})
}

// printEvent prints one event in highlighted format
func printEvent(e monitorEvent) {
	timestamp := e.at.Format("15:04:05.000")
	if e.isError {
		fmt.Printf("[%s] \033[1;31mERROR:\033[0m %s\n", timestamp, e.message)
		return
	}
	fmt.Printf("[%s] \033[1;32m%s\033[0m\n", timestamp, e.message)
}
