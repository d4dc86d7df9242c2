// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/gnomon/pkg/receiver"
	"github.com/Thermoquad/gnomon/pkg/ubx"
)

var (
	capabilitiesTimeout int
	capabilitiesJSON    bool
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Query the receiver's version and supported constellations",
	Long: `Poll MON-VER and MON-GNSS and print what the receiver reports about itself.

MON-VER gives the hardware generation and protocol version; MON-GNSS gives
which constellations are supported, enabled by default and currently
enabled. Unanswered polls are retried.

Exit codes:
  0 - Receiver answered both polls
  1 - Timeout before both answers arrived
  2 - Connection error`,
	RunE: runCapabilities,
}

func init() {
	rootCmd.AddCommand(capabilitiesCmd)
	capabilitiesCmd.Flags().IntVar(&capabilitiesTimeout, "timeout", 10, "Timeout in seconds")
	capabilitiesCmd.Flags().BoolVar(&capabilitiesJSON, "json", false, "Print the capabilities as JSON")
}

func runCapabilities(cmd *cobra.Command, args []string) error {
	s, err := openSession(sessionOptions{polling: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer s.Close()

	if !capabilitiesJSON {
		fmt.Printf("Gnomon - Receiver Capabilities\n")
		fmt.Printf("Connection: %s\n", s.connInfo)
		fmt.Printf("Timeout: %d seconds\n\n", capabilitiesTimeout)
	}

	ctx, cancel := signalContext()
	defer cancel()

	deadline := time.Now().Add(time.Duration(capabilitiesTimeout) * time.Second)
	complete := false

	err = s.loop(ctx, func(now time.Time) (bool, error) {
		caps := s.driver.Capabilities()
		if caps.VersionKnown && !caps.LastUpdate.IsZero() {
			complete = true
			return true, nil
		}
		return now.After(deadline), nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)
	}

	caps := s.driver.Capabilities()
	if capabilitiesJSON {
		out, err := json.MarshalIndent(&caps, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		fmt.Print(formatCapabilities(&caps))
	}

	if !complete {
		fmt.Fprintf(os.Stderr, "\nTIMEOUT: receiver did not answer within %ds\n", capabilitiesTimeout)
		os.Exit(1)
	}
	return nil
}

// formatCapabilities renders capabilities as an indented report
func formatCapabilities(c *receiver.Capabilities) string {
	var b strings.Builder
	b.WriteString("Receiver:\n")
	if c.Hardware == "" && !c.VersionKnown {
		b.WriteString("  Version: unknown\n")
	} else {
		fmt.Fprintf(&b, "  Hardware: %s (%s)\n", c.HWVersion, c.Hardware)
		fmt.Fprintf(&b, "  Software: %s\n", c.Software)
		if c.VersionKnown {
			fmt.Fprintf(&b, "  Protocol: %s\n", c.Version)
		} else {
			b.WriteString("  Protocol: unknown\n")
		}
	}

	if c.LastUpdate.IsZero() {
		b.WriteString("  Constellations: unknown\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  Max concurrent: %d\n", c.MaxGnss)
	b.WriteString("  Constellations:\n")
	for _, con := range []receiver.Constellation{receiver.GPS, receiver.GLONASS, receiver.BeiDou, receiver.Galileo} {
		g := c.Gnss(con)
		fmt.Fprintf(&b, "    %-8s supported=%-5t default=%-5t enabled=%t\n", con, g.Supported, g.Default, g.Enabled)
	}
	return b.String()
}

// formatNavigation renders the navigation solution as an indented report
func formatNavigation(n *receiver.Navigation) string {
	var b strings.Builder
	b.WriteString("Navigation:\n")
	if n.UpdatedAt.IsZero() {
		b.WriteString("  (no solution yet)\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  Fix: %s (valid=%t, %d SVs, PDOP %.2f)\n",
		ubx.FormatFixType(n.FixType), n.FixValid, n.NumSV, float64(n.PDOP)/100)
	fmt.Fprintf(&b, "  Position: %.7f, %.7f, %.1f m MSL (hAcc %.1f m)\n",
		n.Latitude(), n.Longitude(), float64(n.HeightMSL)/1000, float64(n.HAcc)/1000)
	fmt.Fprintf(&b, "  Velocity: N %.2f E %.2f D %.2f m/s\n",
		float64(n.VelN)/100, float64(n.VelE)/100, float64(n.VelD)/100)
	if t, ok := n.Time(); ok {
		fmt.Fprintf(&b, "  Time: %s\n", t.Format(time.RFC3339Nano))
	}
	return b.String()
}
