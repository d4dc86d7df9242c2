// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package receiver

import (
	"errors"
	"time"
)

// Command errors
var (
	ErrCommandPending  = errors.New("command already waiting")
	ErrCommandRejected = errors.New("command rejected")
	ErrCommandTimeout  = errors.New("command timed out")
)

// CommandState is the resolution state of the command slot
type CommandState int

// Command slot states
const (
	CommandIdle CommandState = iota
	CommandWaiting
	CommandAcknowledged
	CommandRejected
	CommandTimedOut
)

// String returns the state name
func (s CommandState) String() string {
	switch s {
	case CommandIdle:
		return "idle"
	case CommandWaiting:
		return "waiting"
	case CommandAcknowledged:
		return "acknowledged"
	case CommandRejected:
		return "rejected"
	case CommandTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is a resolution of a sent command
func (s CommandState) Terminal() bool {
	return s == CommandAcknowledged || s == CommandRejected || s == CommandTimedOut
}

// Err maps a failed resolution to its sentinel error, nil otherwise
func (s CommandState) Err() error {
	switch s {
	case CommandRejected:
		return ErrCommandRejected
	case CommandTimedOut:
		return ErrCommandTimeout
	}
	return nil
}

// Tracker is the single outstanding-command slot.
//
// It does not run on its own: Check must be called to detect expiry.
// A command is resolved by a matching ACK/NAK, or for polls by the
// polled message itself. The tracker performs no retries.
type Tracker struct {
	state    CommandState
	class    uint8
	id       uint8
	poll     bool
	sentAt   time.Time
	deadline time.Time
	timeout  time.Duration
}

// NewTracker creates an idle tracker with the given timeout
func NewTracker(timeout time.Duration) *Tracker {
	return &Tracker{timeout: timeout}
}

// Begin marks a command as waiting. A previous terminal result is
// discarded; a command still waiting is not, and ErrCommandPending is
// returned without touching it.
func (t *Tracker) Begin(class, id uint8, poll bool, now time.Time) error {
	if t.state == CommandWaiting {
		return ErrCommandPending
	}
	t.state = CommandWaiting
	t.class = class
	t.id = id
	t.poll = poll
	t.sentAt = now
	t.deadline = now.Add(t.timeout)
	return nil
}

// HandleAck resolves the waiting command when an ACK/NAK names it.
// Returns false when the ACK refers to something else and was ignored.
func (t *Tracker) HandleAck(class, id uint8, acknowledged bool) bool {
	if t.state != CommandWaiting || class != t.class || id != t.id {
		return false
	}
	if t.poll && acknowledged {
		// Polls resolve on the response message; an ACK carries nothing
		return false
	}
	if acknowledged {
		t.state = CommandAcknowledged
	} else {
		t.state = CommandRejected
	}
	return true
}

// HandleResponse resolves a waiting poll when the polled message arrives
func (t *Tracker) HandleResponse(class, id uint8) bool {
	if t.state != CommandWaiting || !t.poll || class != t.class || id != t.id {
		return false
	}
	t.state = CommandAcknowledged
	return true
}

// Check expires a waiting command whose deadline has passed and returns
// the current state.
func (t *Tracker) Check(now time.Time) CommandState {
	if t.state == CommandWaiting && !now.Before(t.deadline) {
		t.state = CommandTimedOut
	}
	return t.state
}

// State returns the current state without checking the deadline
func (t *Tracker) State() CommandState {
	return t.state
}

// Command returns the class and id of the last command begun
func (t *Tracker) Command() (class, id uint8) {
	return t.class, t.id
}

// IsPoll reports whether the last command begun was a poll
func (t *Tracker) IsPoll() bool {
	return t.poll
}

// SentAt returns when the last command was begun
func (t *Tracker) SentAt() time.Time {
	return t.sentAt
}

// Deadline returns the expiry time of the last command begun
func (t *Tracker) Deadline() time.Time {
	return t.deadline
}

// Reset returns the slot to idle
func (t *Tracker) Reset() {
	t.state = CommandIdle
}
