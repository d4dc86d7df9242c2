// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/gnomon/pkg/receiver"
	"github.com/Thermoquad/gnomon/pkg/ubx"
)

// Messages from the session goroutine
type tickMsg time.Time
type eventsMsg []monitorEvent
type snapshotMsg monitorSnapshot
type connectionLostMsg struct{ err error }

// model is the monitor TUI
type model struct {
	connInfo      string
	statsInterval int
	showAll       bool
	passive       bool
	started       time.Time

	snap     *monitorSnapshot
	signals  table.Model
	eventLog []monitorEvent
	maxLog   int
	lostErr  error

	width    int
	height   int
	quitting bool
}

var signalColumns = []table.Column{
	{Title: "GNSS", Width: 8},
	{Title: "SV", Width: 4},
	{Title: "Sig", Width: 4},
	{Title: "C/N0", Width: 5},
	{Title: "Quality", Width: 9},
	{Title: "Health", Width: 9},
	{Title: "Used", Width: 5},
}

// formatUptime formats a duration in milliseconds as words
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	unit := func(n uint64, name string) string {
		if n == 1 {
			return "1 " + name
		}
		return fmt.Sprintf("%d %ss", n, name)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, unit(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, unit(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, unit(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, unit(seconds, "second"))
	}

	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	return strings.Join(parts[:len(parts)-1], ", ") + ", and " + last
}

func initialModel(connInfo string, statsInterval int, showAll, passive bool) model {
	t := table.New(
		table.WithColumns(signalColumns),
		table.WithHeight(10),
		table.WithFocused(false),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = lipgloss.NewStyle()
	t.SetStyles(styles)

	return model{
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		passive:       passive,
		started:       time.Now(),
		signals:       t,
		eventLog:      make([]monitorEvent, 0),
		maxLog:        100,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.signals.SetHeight(m.tableHeight())

	case tickMsg:
		return m, tickCmd()

	case eventsMsg:
		for _, e := range msg {
			m.addLogEntry(e)
		}

	case snapshotMsg:
		snap := monitorSnapshot(msg)
		m.snap = &snap
		m.signals.SetRows(signalRows(snap.signals))

	case connectionLostMsg:
		m.lostErr = msg.err
		m.addLogEntry(monitorEvent{at: time.Now(), message: fmt.Sprintf("Connection lost: %v", msg.err), isError: true})
	}

	return m, nil
}

func (m *model) addLogEntry(e monitorEvent) {
	m.eventLog = append(m.eventLog, e)
	if len(m.eventLog) > m.maxLog {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLog:]
	}
}

func (m model) tableHeight() int {
	h := (m.height - 20) / 2
	if h < 4 {
		h = 4
	}
	return h
}

// signalRows orders signals by constellation, satellite then signal
func signalRows(signals []ubx.SignalInfo) []table.Row {
	sorted := append([]ubx.SignalInfo(nil), signals...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.GnssID != b.GnssID {
			return a.GnssID < b.GnssID
		}
		if a.SvID != b.SvID {
			return a.SvID < b.SvID
		}
		return a.SigID < b.SigID
	})

	rows := make([]table.Row, 0, len(sorted))
	for i := range sorted {
		s := &sorted[i]
		used := ""
		if s.PRUsed() {
			used = "yes"
		}
		rows = append(rows, table.Row{
			ubx.FormatGnss(s.GnssID),
			fmt.Sprintf("%d", s.SvID),
			fmt.Sprintf("%d", s.SigID),
			fmt.Sprintf("%d", s.Cno),
			ubx.FormatSignalQuality(s.Quality),
			ubx.FormatSignalHealth(s.Health()),
			used,
		})
	}
	return rows
}

func (m model) View() string {
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

	label := func(s string) string { return labelStyle.Render(s) }
	value := func(format string, a ...any) string { return valueStyle.Render(fmt.Sprintf(format, a...)) }

	var s strings.Builder
	s.WriteString(titleStyle.Render("GNOMON - RECEIVER MONITOR"))
	s.WriteString("\n")
	mode := "Errors only"
	if m.showAll {
		mode = "All frames"
	}
	if m.passive {
		mode += ", passive"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | Up %s | Press 'q' to quit",
		m.connInfo, mode, formatUptime(uint64(time.Since(m.started).Milliseconds())))))
	s.WriteString("\n\n")

	if m.lostErr != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Connection lost: %v", m.lostErr)))
		s.WriteString("\n\n")
	}

	if m.snap == nil {
		s.WriteString(warningStyle.Render("⏳ Waiting for receiver..."))
		s.WriteString("\n\n")
	} else {
		snap := m.snap

		// Receiver
		caps := &snap.caps
		var rc strings.Builder
		if caps.VersionKnown {
			rc.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
				label("Receiver:"), value("%s", caps.HWVersion),
				label("Protocol:"), value("%s", caps.Version),
				label("Software:"), value("%s", caps.Software)))
		} else {
			rc.WriteString(warningStyle.Render("Receiver version unknown"))
			rc.WriteString("\n")
		}
		if !caps.LastUpdate.IsZero() {
			rc.WriteString(fmt.Sprintf("%s %s\n", label("GNSS:"), value("%s", enabledConstellations(caps))))
		}
		rc.WriteString(fmt.Sprintf("%s %s", label("Command:"), value("%s", snap.command)))
		s.WriteString(boxStyle.Render(rc.String()))
		s.WriteString("\n")

		// Navigation
		nav := &snap.nav
		var nc strings.Builder
		fix := ubx.FormatFixType(nav.FixType)
		fixRendered := warningStyle.Render(fix)
		if nav.FixValid {
			fixRendered = valueStyle.Render(fix)
		}
		nc.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			label("Fix:"), fixRendered,
			label("SVs:"), value("%d", nav.NumSV),
			label("PDOP:"), value("%.2f", float64(nav.PDOP)/100)))
		nc.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			label("Lat:"), value("%.7f", nav.Latitude()),
			label("Lon:"), value("%.7f", nav.Longitude()),
			label("Alt:"), value("%.1f m", float64(nav.HeightMSL)/1000)))
		nc.WriteString(fmt.Sprintf("%s %s   %s %s",
			label("Speed:"), value("%.2f m/s", float64(nav.GroundSpeed)/100),
			label("Heading:"), value("%.1f°", float64(nav.Heading)/1e5)))
		if t, ok := nav.Time(); ok {
			nc.WriteString(fmt.Sprintf("   %s %s", label("UTC:"), value("%s", t.Format("2006-01-02 15:04:05"))))
		}
		s.WriteString(boxStyle.Render(nc.String()))
		s.WriteString("\n")

		// Statistics
		st := snap.stats
		st.CalculateRates()
		errs := st.Errors()
		var validPercent, errorPercent float64
		if st.TotalFrames > 0 {
			validPercent = float64(st.ValidFrames) * 100.0 / float64(st.TotalFrames)
			errorPercent = float64(errs) * 100.0 / float64(st.TotalFrames)
		}
		var sc strings.Builder
		sc.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			label("Total:"), value("%d", st.TotalFrames),
			label("Valid:"), value("%d (%.1f%%)", st.ValidFrames, validPercent),
			label("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", errs, errorPercent))))
		if st.ChecksumErrors > 0 || st.DecodeErrors > 0 || st.MalformedFrames > 0 {
			sc.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
				label("Checksum:"), errorStyle.Render(fmt.Sprintf("%d", st.ChecksumErrors)),
				label("Decode:"), errorStyle.Render(fmt.Sprintf("%d", st.DecodeErrors)),
				label("Malformed:"), errorStyle.Render(fmt.Sprintf("%d", st.MalformedFrames))))
		}
		if st.AnomalousValues > 0 {
			sc.WriteString(fmt.Sprintf("%s %s\n", label("Anomalous:"), warningStyle.Render(fmt.Sprintf("%d", st.AnomalousValues))))
		}
		sc.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
			label("ACK/NAK:"), value("%d/%d", st.Acks, st.Naks),
			label("Timeouts:"), value("%d", st.Timeouts),
			label("Rate:"), value("%.1f frames/s", st.FrameRate)))
		s.WriteString(boxStyle.Render(sc.String()))
		s.WriteString("\n\n")

		s.WriteString(label(fmt.Sprintf("Signals (%d):", len(snap.signals))))
		s.WriteString("\n")
		s.WriteString(m.signals.View())
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(label("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - m.tableHeight() - 24
	if logHeight < 3 {
		logHeight = 3
	}
	start := len(m.eventLog) - logHeight
	if start < 0 {
		start = 0
	}

	var lc strings.Builder
	if len(m.eventLog) == 0 {
		lc.WriteString(headerStyle.Render("  (no events yet)"))
	}
	for _, e := range m.eventLog[start:] {
		ts := headerStyle.Render(e.at.Format("15:04:05.000"))
		if e.isError {
			lc.WriteString(fmt.Sprintf("%s %s\n", ts, errorStyle.Render("✗ "+e.message)))
		} else {
			lc.WriteString(fmt.Sprintf("%s %s\n", ts, warningStyle.Render("ℹ "+e.message)))
		}
	}
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	s.WriteString(boxStyle.Width(width).Render(lc.String()))

	return s.String()
}

// enabledConstellations lists the enabled constellations from MON-GNSS
func enabledConstellations(caps *receiver.Capabilities) string {
	names := []string{}
	for _, c := range []receiver.Constellation{receiver.GPS, receiver.GLONASS, receiver.BeiDou, receiver.Galileo} {
		if caps.Gnss(c).Enabled {
			names = append(names, c.String())
		}
	}
	return strings.Join(names, ", ")
}
