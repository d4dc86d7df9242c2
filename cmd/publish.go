// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/gnomon/pkg/config"
	"github.com/Thermoquad/gnomon/pkg/telemetry"
)

var (
	natsURL      string
	publishSetup bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish navigation snapshots to NATS",
	Long: `Drive the receiver and publish its state to a NATS server as JSON.

Snapshots of the navigation solution and tracked signals are published to
<subject>.nav at the configured interval. A capability report is published
to <subject>.caps whenever the receiver reports its version or
constellations.

The server URL comes from --nats, then the GNOMON_NATS_URL environment
variable, then the telemetry section of the configuration file.`,
	RunE: runPublish,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print navigation snapshots published to NATS",
	Long: `Subscribe to <subject>.nav and print each snapshot as it arrives.

Useful for checking a publish session from another machine.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(watchCmd)
	for _, c := range []*cobra.Command{publishCmd, watchCmd} {
		c.Flags().StringVar(&natsURL, "nats", "", "NATS server URL (default $"+envNatsURL+")")
	}
	publishCmd.Flags().BoolVar(&publishSetup, "setup", false, "Apply the receiver setup from the configuration file")
}

// telemetrySettings resolves the NATS URL and subject prefix
func telemetrySettings() (config.Config, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, "", err
	}
	url := natsURL
	if url == "" {
		url = os.Getenv(envNatsURL)
	}
	if url == "" {
		url = cfg.Telemetry.URL
	}
	if url == "" {
		url = nats.DefaultURL
	}
	return cfg, url, nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, url, err := telemetrySettings()
	if err != nil {
		return err
	}
	settings, err := cfg.Receiver.Settings()
	if err != nil {
		return err
	}

	sessionID := uuid.New().String()
	pub, err := telemetry.Connect(url, cfg.Telemetry.Subject, sessionID)
	if err != nil {
		return err
	}
	defer pub.Close()

	s, err := openSession(sessionOptions{polling: true})
	if err != nil {
		return err
	}
	defer s.Close()

	interval := time.Duration(cfg.Telemetry.IntervalMs) * time.Millisecond

	fmt.Printf("Gnomon - Publish\n")
	fmt.Printf("Connection: %s\n", s.connInfo)
	fmt.Printf("NATS: %s\n", url)
	fmt.Printf("Subjects: %s%s, %s%s\n", cfg.Telemetry.Subject, telemetry.SuffixNav, cfg.Telemetry.Subject, telemetry.SuffixCaps)
	fmt.Printf("Session: %s\n", sessionID)
	fmt.Printf("Interval: %s\n", interval)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, cancel := signalContext()
	defer cancel()

	setupPending := publishSetup
	next := time.Now().Add(interval)
	var lastCaps time.Time
	var published uint64

	return s.loop(ctx, func(now time.Time) (bool, error) {
		if setupPending && s.driver.Capabilities().VersionKnown {
			setupPending = false
			if err := s.driver.Configure(settings); err != nil {
				return true, fmt.Errorf("setup failed: %w", err)
			}
		}

		if updated := s.driver.CapabilitiesUpdated(); updated.After(lastCaps) {
			lastCaps = updated
			if err := pub.PublishCapabilities(telemetry.BuildCapabilityReport(s.driver, now)); err != nil {
				log.Printf("Publish error: %v", err)
			}
		}

		if now.Before(next) {
			return false, nil
		}
		next = now.Add(interval)
		if err := pub.PublishSnapshot(telemetry.BuildSnapshot(s.driver, now)); err != nil {
			log.Printf("Publish error: %v", err)
			return false, nil
		}
		published++
		if verbose && published%10 == 0 {
			log.Printf("Published %d snapshots", published)
		}
		return false, nil
	})
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, url, err := telemetrySettings()
	if err != nil {
		return err
	}

	nc, err := nats.Connect(url, nats.Name("gnomon-watch"))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	sub, err := telemetry.Subscribe(nc, cfg.Telemetry.Subject, func(s telemetry.Snapshot) {
		used := 0
		for _, sig := range s.Signals {
			if sig.Used {
				used++
			}
		}
		fmt.Printf("[%s] %s %s %.7f, %.7f  SVs=%d signals=%d/%d frames=%d errors=%d\n",
			s.Time.Format("15:04:05.000"), s.Session, s.Fix, s.Latitude, s.Longitude,
			s.Navigation.NumSV, used, len(s.Signals), s.Frames, s.Errors)
	}, func(err error) {
		log.Printf("Watch error: %v", err)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	fmt.Printf("Watching %s%s on %s\n", cfg.Telemetry.Subject, telemetry.SuffixNav, url)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, cancel := signalContext()
	defer cancel()
	<-ctx.Done()
	return nil
}
