// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/gnomon/pkg/receiver"
	"github.com/Thermoquad/gnomon/pkg/ubx"
)

// reconnectDelay is the wait between reconnection attempts
const reconnectDelay = 2 * time.Second

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for commanding the receiver",
	Long: `Command the receiver from an interactive terminal UI.

Actions:
  - Poll the receiver version (MON-VER) and constellations (MON-GNSS)
  - Poll the navigation solution (NAV-PVT)
  - Apply the receiver setup from the configuration file
  - Change the measurement rate
  - Send a raw UBX frame given as hex

Only one command is outstanding at a time; its outcome (ACK, NAK or
timeout) is shown as it resolves. The connection is reopened automatically
when it is lost.

Tab switches between the action list and the argument input.`,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

// controlRequest runs against the driver on the session goroutine
type controlRequest struct {
	action controlAction
	arg    string
}

// controlResultMsg reports whether a request was accepted by the driver
type controlResultMsg struct {
	action controlAction
	err    error
}

type reconnectedMsg struct {
	connInfo string
}

// controlManager owns the session and reopens it when the connection drops
type controlManager struct {
	settings receiver.Settings
	reqs     chan controlRequest
	p        *tea.Program
}

func runControl(cmd *cobra.Command, args []string) error {
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
		return err
	}

	cm := &controlManager{
		settings: settings,
		reqs:     make(chan controlRequest, 8),
	}

	m := initialControlModel(cm.reqs, s.connInfo)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	cm.p = p

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go cm.run(ctx, s)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// run drives sessions until ctx is cancelled, reconnecting after a loss
func (cm *controlManager) run(ctx context.Context, s *session) {
	for {
		err := cm.drive(ctx, s)
		s.Close()
		if ctx.Err() != nil {
			return
		}
		cm.p.Send(connectionLostMsg{err: err})

		s = cm.reconnect(ctx)
		if s == nil {
			return
		}
		cm.p.Send(reconnectedMsg{connInfo: s.connInfo})
	}
}

func (cm *controlManager) drive(ctx context.Context, s *session) error {
	var lastUpdate time.Time

	return s.loop(ctx, func(now time.Time) (bool, error) {
		for {
			select {
			case req := <-cm.reqs:
				err := cm.execute(s.driver, req)
				cm.p.Send(controlResultMsg{action: req.action, err: err})
				continue
			default:
			}
			break
		}
		if now.Sub(lastUpdate) >= 100*time.Millisecond {
			lastUpdate = now
			cm.p.Send(controlStatusMsg{
				snap:   takeSnapshot(s.driver),
				config: s.driver.ConfigResult(),
			})
		}
		return false, nil
	})
}

// reconnect retries the connection until it opens or ctx is cancelled
func (cm *controlManager) reconnect(ctx context.Context) *session {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
		s, err := openSession(sessionOptions{polling: true})
		if err == nil {
			return s
		}
	}
}

// execute starts one action on the driver
func (cm *controlManager) execute(d *receiver.Driver, req controlRequest) error {
	switch req.action {
	case actionPollVersion:
		return d.Poll(ubx.ClassMON, ubx.MsgMonVer)
	case actionPollGnss:
		return d.Poll(ubx.ClassMON, ubx.MsgMonGNSS)
	case actionPollPVT:
		return d.Poll(ubx.ClassNAV, ubx.MsgNavPVT)
	case actionSetup:
		return d.Configure(cm.settings)
	case actionRate:
		ms, err := parseRate(req.arg)
		if err != nil {
			return err
		}
		if d.HWVersion() >= ubx.HWVersionUblox9 {
			return d.ApplyConfig(ubx.LayerRAM, []ubx.KeyValue{{Key: ubx.KeyRateMeas, Value: ms}})
		}
		return d.ApplyFrames([]*ubx.Frame{ubx.NewCfgRate(ms, 1, 0)})
	case actionRaw:
		wire, err := parseHexFrame(req.arg)
		if err != nil {
			return err
		}
		return d.SendRaw(wire)
	}
	return fmt.Errorf("unknown action %d", req.action)
}

func parseRate(s string) (uint16, error) {
	ms, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q", s)
	}
	if ms < receiver.MinRateMs || ms > receiver.MaxRateMs {
		return 0, fmt.Errorf("rate %d ms out of range (%d-%d)", ms, receiver.MinRateMs, receiver.MaxRateMs)
	}
	return uint16(ms), nil
}

// parseHexFrame accepts wire bytes as hex, with or without separators
func parseHexFrame(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "0x", "", ",", "").Replace(strings.TrimSpace(s))
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}
