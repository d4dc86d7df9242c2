// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Gnomon - u-blox UBX receiver driver and analyzer
//
// A CLI tool for configuring u-blox GNSS receivers and monitoring their
// UBX output over a serial port or WebSocket bridge.

package main

import (
	"os"

	"github.com/Thermoquad/gnomon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
