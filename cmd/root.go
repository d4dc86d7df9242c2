// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/gnomon/pkg/config"
)

// Environment variables
const (
	envPassword = "GNOMON_PASSWORD"
	envPort     = "GNOMON_PORT"
	envNatsURL  = "GNOMON_NATS_URL"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Receiver setup file
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "gnomon",
	Short: "u-blox UBX receiver driver and analyzer",
	Long: `Gnomon - A CLI tool for driving and analyzing u-blox GNSS receivers over UBX.

Provides commands for raw frame logging, live monitoring of the navigation
solution and tracked signals, receiver configuration, capability queries,
and recording, replaying and publishing receiver sessions.

Connection modes:
  Serial:    --port /dev/ttyACM0 [--baud 38400]
  WebSocket: --url ws://host/path [--username user]

Defaults are read from a .env file in the working directory when present.
GNOMON_PORT sets a default serial port and GNOMON_NATS_URL a default NATS
server. For WebSocket authentication, the password is read from the
GNOMON_PASSWORD environment variable, or prompted interactively if not set.
The --password flag is intentionally not provided to avoid leaking
credentials in shell history.`,
	Version:      "0.3.0",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if portName == "" && wsURL == "" {
			portName = os.Getenv(envPort)
		}
		return nil
	},
}

func init() {
	// A missing .env is fine
	_ = godotenv.Load()

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device (default $"+envPort+")")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 38400, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Receiver setup file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log driver events to stderr")
}

// loadConfig returns the setup file named by --config, or the defaults
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
