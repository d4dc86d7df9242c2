// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/gnomon/pkg/receiver"
	"github.com/Thermoquad/gnomon/pkg/ubx"
)

//////////////////////////////////////////////////////////////
// Actions
//////////////////////////////////////////////////////////////

type controlAction int

const (
	actionPollVersion controlAction = iota
	actionPollGnss
	actionPollPVT
	actionSetup
	actionRate
	actionRaw
)

type actionItem struct {
	action      controlAction
	title       string
	description string
	placeholder string // non-empty when the action takes an argument
}

// Implement list.Item interface
func (a actionItem) Title() string       { return a.title }
func (a actionItem) Description() string { return a.description }
func (a actionItem) FilterValue() string { return a.title }

var controlActions = []actionItem{
	{action: actionPollVersion, title: "Poll version", description: "MON-VER"},
	{action: actionPollGnss, title: "Poll constellations", description: "MON-GNSS"},
	{action: actionPollPVT, title: "Poll navigation", description: "NAV-PVT"},
	{action: actionSetup, title: "Apply setup", description: "From the configuration file"},
	{action: actionRate, title: "Set rate", description: "Measurement period in ms", placeholder: "100"},
	{action: actionRaw, title: "Send raw frame", description: "Hex wire bytes", placeholder: "B5 62 06 08 ..."},
}

func (a controlAction) String() string {
	for _, item := range controlActions {
		if item.action == a {
			return item.title
		}
	}
	return "unknown"
}

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

type focusField int

const (
	focusActionList focusField = iota
	focusArgInput
)

type controlStatusMsg struct {
	snap   monitorSnapshot
	config receiver.ConfigResult
}

type controlTickMsg time.Time

type controlModel struct {
	reqs     chan<- controlRequest
	connInfo string

	actionList list.Model
	argInput   textinput.Model
	spinner    spinner.Model
	focused    focusField

	snap           *monitorSnapshot
	config         receiver.ConfigResult
	lastAction     controlAction
	hasAction      bool
	lastState      receiver.CommandState
	connectionLost bool

	eventLog []monitorEvent
	maxLog   int

	width    int
	height   int
	quitting bool
}

func initialControlModel(reqs chan<- controlRequest, connInfo string) controlModel {
	ti := textinput.New()
	ti.CharLimit = 128
	ti.Width = 40

	items := make([]list.Item, len(controlActions))
	for i, a := range controlActions {
		items[i] = a
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	actionList := list.New(items, delegate, 32, 14)
	actionList.Title = "Actions"
	actionList.SetShowStatusBar(false)
	actionList.SetShowHelp(false)
	actionList.SetFilteringEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := controlModel{
		reqs:       reqs,
		connInfo:   connInfo,
		actionList: actionList,
		argInput:   ti,
		spinner:    sp,
		focused:    focusActionList,
		eventLog:   make([]monitorEvent, 0),
		maxLog:     100,
		width:      80,
		height:     24,
	}
	m.syncPlaceholder()
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return tea.Batch(controlTickCmd(), m.spinner.Tick)
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			m.actionList, _ = m.actionList.Update(msg)
			m.syncPlaceholder()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.actionList.SetHeight(max(8, m.height-6))

	case controlTickMsg:
		return m, controlTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case controlStatusMsg:
		m.processStatus(msg)

	case controlResultMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("%s: %v", msg.action, msg.err), true)
		} else {
			m.addLogEntry(fmt.Sprintf("%s: sent", msg.action), false)
			// Configuration jobs report through the config result instead
			if msg.action != actionSetup && msg.action != actionRate {
				m.lastAction = msg.action
				m.hasAction = true
				m.lastState = receiver.CommandIdle
			}
		}

	case connectionLostMsg:
		m.connectionLost = true
		m.addLogEntry(fmt.Sprintf("Connection lost (%v) - reconnecting...", msg.err), true)

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.hasAction = false
		m.addLogEntry("Reconnected", false)
	}

	if m.focused == focusArgInput {
		var cmd tea.Cmd
		m.argInput, cmd = m.argInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		if m.focused != focusArgInput {
			m.quitting = true
			return m, tea.Quit
		}

	case "tab", "shift+tab":
		m.toggleFocus()
		return m, nil

	case "enter":
		return m.handleEnter()
	}

	var cmd tea.Cmd
	if m.focused == focusArgInput {
		m.argInput, cmd = m.argInput.Update(msg)
		return m, cmd
	}
	m.actionList, cmd = m.actionList.Update(msg)
	m.syncPlaceholder()
	return m, cmd
}

func (m *controlModel) toggleFocus() {
	item, ok := m.selectedAction()
	if m.focused == focusActionList && ok && item.placeholder != "" {
		m.focused = focusArgInput
		m.argInput.Focus()
		return
	}
	m.focused = focusActionList
	m.argInput.Blur()
}

func (m *controlModel) handleEnter() (tea.Model, tea.Cmd) {
	if m.connectionLost {
		m.addLogEntry("Cannot send command: connection lost", true)
		return m, nil
	}

	item, ok := m.selectedAction()
	if !ok {
		return m, nil
	}
	if item.placeholder != "" && m.focused == focusActionList {
		m.toggleFocus()
		return m, nil
	}

	req := controlRequest{action: item.action, arg: m.argInput.Value()}
	select {
	case m.reqs <- req:
	default:
		m.addLogEntry("Busy, request dropped", true)
	}
	if item.placeholder != "" {
		m.argInput.SetValue("")
		m.focused = focusActionList
		m.argInput.Blur()
	}
	return m, nil
}

func (m *controlModel) selectedAction() (actionItem, bool) {
	item, ok := m.actionList.SelectedItem().(actionItem)
	return item, ok
}

func (m *controlModel) syncPlaceholder() {
	if item, ok := m.selectedAction(); ok {
		m.argInput.Placeholder = item.placeholder
	}
}

// processStatus logs command and configuration outcomes as they resolve
func (m *controlModel) processStatus(msg controlStatusMsg) {
	snap := msg.snap
	snap.signals = nil
	m.snap = &snap

	// The slot is shared with capability polls, so stop following it once
	// our command has resolved
	if m.hasAction && !m.lastState.Terminal() && snap.command != m.lastState {
		m.lastState = snap.command
		if snap.command.Terminal() {
			m.addLogEntry(fmt.Sprintf("%s: %s", m.lastAction, snap.command), snap.command != receiver.CommandAcknowledged)
		}
	}

	if m.config.Active && !msg.config.Active && msg.config.Total > 0 {
		m.addLogEntry(fmt.Sprintf("Configuration %s", msg.config), msg.config.Err != nil)
	}
	m.config = msg.config
}

func (m *controlModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, monitorEvent{at: time.Now(), message: message, isError: isError})
	if len(m.eventLog) > m.maxLog {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLog:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	var s strings.Builder
	s.WriteString(titleStyle.Render("GNOMON CONTROL"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=switch Enter=send", connStatus)))
	s.WriteString("\n\n")

	listBox := boxStyle
	inputBox := boxStyle
	if m.focused == focusActionList {
		listBox = focusedBoxStyle
	} else {
		inputBox = focusedBoxStyle
	}
	left := listBox.Render(m.actionList.View())

	var right strings.Builder

	// Receiver
	var rc strings.Builder
	if m.snap != nil && m.snap.caps.VersionKnown {
		caps := &m.snap.caps
		rc.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			labelStyle.Render("Receiver:"), valueStyle.Render(caps.HWVersion.String()),
			labelStyle.Render("Protocol:"), valueStyle.Render(caps.Version.String())))
		if !caps.LastUpdate.IsZero() {
			rc.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("GNSS:"), valueStyle.Render(enabledConstellations(caps))))
		}
	} else {
		rc.WriteString(warningStyle.Render(m.spinner.View() + " Waiting for receiver version"))
		rc.WriteString("\n")
	}
	if m.snap != nil {
		rc.WriteString(fmt.Sprintf("%s %s   %s %s",
			labelStyle.Render("Fix:"), valueStyle.Render(ubx.FormatFixType(m.snap.nav.FixType)),
			labelStyle.Render("SVs:"), valueStyle.Render(fmt.Sprintf("%d", m.snap.nav.NumSV))))
	}
	right.WriteString(boxStyle.Render(rc.String()))
	right.WriteString("\n")

	// Argument
	var ic strings.Builder
	ic.WriteString(labelStyle.Render("Argument:"))
	ic.WriteString("\n")
	ic.WriteString(m.argInput.View())
	right.WriteString(inputBox.Render(ic.String()))
	right.WriteString("\n")

	// Command
	var cc strings.Builder
	if m.hasAction {
		state := m.lastState
		rendered := valueStyle.Render(state.String())
		switch state {
		case receiver.CommandWaiting:
			rendered = warningStyle.Render(m.spinner.View() + " " + state.String())
		case receiver.CommandRejected, receiver.CommandTimedOut:
			rendered = errorStyle.Render(state.String())
		}
		cc.WriteString(fmt.Sprintf("%s %s   %s\n", labelStyle.Render("Last:"), valueStyle.Render(m.lastAction.String()), rendered))
	} else {
		cc.WriteString(headerStyle.Render("No command sent"))
		cc.WriteString("\n")
	}
	config := m.config.String()
	if m.config.Active {
		config = m.spinner.View() + " " + config
	}
	cc.WriteString(fmt.Sprintf("%s %s", labelStyle.Render("Config:"), valueStyle.Render(config)))
	if m.snap != nil {
		st := &m.snap.stats
		cc.WriteString(fmt.Sprintf("\n%s %s   %s %s",
			labelStyle.Render("ACK/NAK:"), valueStyle.Render(fmt.Sprintf("%d/%d", st.Acks, st.Naks)),
			labelStyle.Render("Timeouts:"), valueStyle.Render(fmt.Sprintf("%d", st.Timeouts))))
	}
	right.WriteString(boxStyle.Render(cc.String()))
	right.WriteString("\n")

	// Event log
	logHeight := m.height - 20
	if logHeight < 4 {
		logHeight = 4
	}
	start := len(m.eventLog) - logHeight
	if start < 0 {
		start = 0
	}
	var lc strings.Builder
	lc.WriteString(labelStyle.Render("Events:"))
	lc.WriteString("\n")
	if len(m.eventLog) == 0 {
		lc.WriteString(headerStyle.Render("(no events yet)"))
	}
	for _, e := range m.eventLog[start:] {
		ts := headerStyle.Render(e.at.Format("15:04:05"))
		if e.isError {
			lc.WriteString(fmt.Sprintf("%s %s\n", ts, errorStyle.Render(e.message)))
		} else {
			lc.WriteString(fmt.Sprintf("%s %s\n", ts, warningStyle.Render(e.message)))
		}
	}
	right.WriteString(boxStyle.Render(lc.String()))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right.String()))
	return s.String()
}
