// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package telemetry publishes receiver snapshots over NATS as JSON.
//
// Snapshots go to <subject>.nav and capability reports to <subject>.caps.
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Thermoquad/gnomon/pkg/receiver"
	"github.com/Thermoquad/gnomon/pkg/ubx"
)

// Subject suffixes
const (
	SuffixNav  = ".nav"
	SuffixCaps = ".caps"
)

// Signal is one tracked signal in a snapshot
type Signal struct {
	Gnss    string `json:"gnss"`
	SvID    uint8  `json:"sv"`
	SigID   uint8  `json:"sig"`
	Cno     uint8  `json:"cno"`
	Quality uint8  `json:"quality"`
	Used    bool   `json:"used"`
}

// Snapshot is the navigation state at one moment
type Snapshot struct {
	Session    string              `json:"session,omitempty"`
	Time       time.Time           `json:"time"`
	Fix        string              `json:"fix"`
	Latitude   float64             `json:"latitude"`
	Longitude  float64             `json:"longitude"`
	Navigation receiver.Navigation `json:"navigation"`
	Signals    []Signal            `json:"signals"`
	Frames     uint64              `json:"frames"`
	Errors     uint64              `json:"errors"`
}

// CapabilityReport describes the connected receiver
type CapabilityReport struct {
	Session      string                `json:"session,omitempty"`
	Time         time.Time             `json:"time"`
	Hardware     string                `json:"hardware"`
	Version      string                `json:"version,omitempty"`
	Capabilities receiver.Capabilities `json:"capabilities"`
}

// BuildSnapshot captures the driver's current navigation state
func BuildSnapshot(d *receiver.Driver, now time.Time) Snapshot {
	nav := d.Navigation()
	stats := d.Statistics()

	s := Snapshot{
		Time:       now,
		Fix:        ubx.FormatFixType(nav.FixType),
		Latitude:   nav.Latitude(),
		Longitude:  nav.Longitude(),
		Navigation: nav,
		Signals:    make([]Signal, 0, d.Signals().Count()),
		Frames:     stats.ValidFrames,
		Errors:     stats.ChecksumErrors + stats.OversizeFrames + stats.DecodeErrors + stats.LengthMismatches,
	}
	for i := 0; i < d.Signals().Count(); i++ {
		sig, _ := d.Signals().Signal(i)
		s.Signals = append(s.Signals, Signal{
			Gnss:    ubx.FormatGnss(sig.GnssID),
			SvID:    sig.SvID,
			SigID:   sig.SigID,
			Cno:     sig.Cno,
			Quality: uint8(sig.Quality),
			Used:    sig.PRUsed(),
		})
	}
	return s
}

// BuildCapabilityReport captures what the driver knows about the receiver
func BuildCapabilityReport(d *receiver.Driver, now time.Time) CapabilityReport {
	caps := d.Capabilities()
	r := CapabilityReport{
		Time:         now,
		Hardware:     caps.HWVersion.String(),
		Capabilities: caps,
	}
	if caps.VersionKnown {
		r.Version = caps.Version.String()
	}
	return r
}

// Conn is the part of a NATS connection the publisher needs
type Conn interface {
	Publish(subject string, data []byte) error
	Flush() error
	Close()
}

// Publisher sends snapshots to a subject prefix
type Publisher struct {
	conn    Conn
	subject string
	session string
}

// Connect dials a NATS server and returns a publisher for subject
func Connect(url, subject, session string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("gnomon"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return NewPublisher(nc, subject, session), nil
}

// NewPublisher wraps an existing connection
func NewPublisher(conn Conn, subject, session string) *Publisher {
	return &Publisher{conn: conn, subject: subject, session: session}
}

// PublishSnapshot publishes s to <subject>.nav
func (p *Publisher) PublishSnapshot(s Snapshot) error {
	s.Session = p.session
	return p.publish(p.subject+SuffixNav, &s)
}

// PublishCapabilities publishes r to <subject>.caps
func (p *Publisher) PublishCapabilities(r CapabilityReport) error {
	r.Session = p.session
	return p.publish(p.subject+SuffixCaps, &r)
}

func (p *Publisher) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection
func (p *Publisher) Close() error {
	err := p.conn.Flush()
	p.conn.Close()
	return err
}

// Subscribe decodes snapshots published under subject and hands them to fn
// until the returned subscription is drained.
func Subscribe(nc *nats.Conn, subject string, fn func(Snapshot), onError func(error)) (*nats.Subscription, error) {
	sub, err := nc.Subscribe(subject+SuffixNav, func(msg *nats.Msg) {
		var s Snapshot
		if err := json.Unmarshal(msg.Data, &s); err != nil {
			if onError != nil {
				onError(fmt.Errorf("bad snapshot on %s: %w", msg.Subject, err))
			}
			return
		}
		fn(s)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return sub, nil
}
