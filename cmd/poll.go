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
	pollCount   int
	pollMessage string
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Poll a message repeatedly and report round-trip times",
	Long: `Send poll requests for one message type and wait for each response.

Each poll is a zero-length frame of the requested class/id; the receiver
answers with the message itself. A poll that is not answered within the
command timeout (500 ms) counts as lost.

The message is given by name (MON-VER, NAV-PVT, ...) or as a class/id hex
pair (0A04).

This is useful for verifying:
  - Both directions of the link work
  - The receiver is processing UBX input
  - Latency of a WebSocket bridge

Exit codes:
  0 - All polls answered
  1 - One or more polls lost
  2 - Connection error`,
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
	pollCmd.Flags().IntVar(&pollCount, "count", 3, "Number of polls to send")
	pollCmd.Flags().StringVar(&pollMessage, "message", "MON-VER", "Message to poll")
}

func runPoll(cmd *cobra.Command, args []string) error {
	class, id, ok := ubx.ParseMessageType(pollMessage)
	if !ok {
		return fmt.Errorf("unknown message %q", pollMessage)
	}

	s, err := openSession(sessionOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer s.Close()

	fmt.Printf("Gnomon - Poll Test\n")
	fmt.Printf("Connection: %s\n", s.connInfo)
	fmt.Printf("Message: %s (0x%02X 0x%02X)\n", ubx.FormatMessageType(class, id), class, id)
	fmt.Printf("Count: %d polls\n\n", pollCount)

	ctx, cancel := signalContext()
	defer cancel()

	var (
		sent, answered int
		rtts           []time.Duration
		sentAt         time.Time
		pending        bool
		nextAt         time.Time
	)

	err = s.loop(ctx, func(now time.Time) (bool, error) {
		if pending {
			state := s.driver.CommandState()
			if !state.Terminal() {
				return false, nil
			}
			pending = false
			if state == receiver.CommandAcknowledged {
				rtt := now.Sub(sentAt)
				rtts = append(rtts, rtt)
				answered++
				fmt.Printf("response from receiver, rtt=%v\n", rtt.Round(time.Millisecond))
			} else {
				fmt.Printf("%s\n", state)
			}
			nextAt = now.Add(100 * time.Millisecond)
		}

		if sent == pollCount {
			return true, nil
		}
		if now.Before(nextAt) {
			return false, nil
		}

		fmt.Printf("Poll %d/%d: ", sent+1, pollCount)
		if err := s.driver.Poll(class, id); err != nil {
			if errors.Is(err, receiver.ErrCommandPending) {
				fmt.Printf("busy, retrying\n")
				nextAt = now.Add(100 * time.Millisecond)
				return false, nil
			}
			return true, err
		}
		sent++
		sentAt = now
		pending = true
		return false, nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("\n--- Poll statistics ---\n")
	loss := 0.0
	if sent > 0 {
		loss = float64(sent-answered) / float64(sent) * 100
	}
	fmt.Printf("%d polls sent, %d responses received, %.0f%% loss\n", sent, answered, loss)
	if len(rtts) > 0 {
		lo, hi, total := rtts[0], rtts[0], time.Duration(0)
		for _, r := range rtts {
			lo = min(lo, r)
			hi = max(hi, r)
			total += r
		}
		avg := total / time.Duration(len(rtts))
		fmt.Printf("rtt min/avg/max = %v/%v/%v\n",
			lo.Round(time.Millisecond), avg.Round(time.Millisecond), hi.Round(time.Millisecond))
	}

	if answered < pollCount {
		os.Exit(1)
	}
	return nil
}
