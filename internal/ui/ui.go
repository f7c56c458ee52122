// Package ui provides the Bubble Tea TUI for ls-spacelight.
package ui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-spacelight/internal/dashboard"
	"github.com/litescript/ls-spacelight/internal/location"
	"github.com/litescript/ls-spacelight/internal/version"
)

// ViewMode represents the current view.
type ViewMode int

const (
	ViewDashboard ViewMode = iota
	ViewSky
)

// Source is what the TUI reads from and controls.
type Source interface {
	Snapshot() dashboard.Snapshot
	Relocate(ctx context.Context) location.Fix
}

// Message types
type (
	// TickMsg is sent periodically to re-read the snapshot and refresh countdowns.
	TickMsg time.Time

	// AnimTickMsg drives spinner animation.
	AnimTickMsg time.Time

	// SnapshotMsg carries a fresh snapshot pushed by the aggregator.
	SnapshotMsg struct {
		Snapshot dashboard.Snapshot
	}

	relocatedMsg struct {
		fix location.Fix
	}
)

const (
	tickInterval     = time.Second
	animTickInterval = 100 * time.Millisecond
	relocateTimeout  = 15 * time.Second
)

// Model is the main Bubble Tea model.
type Model struct {
	src        Source
	viewMode   ViewMode
	dashboard  DashboardModel
	skyView    SkyViewModel
	snapshot   dashboard.Snapshot
	width      int
	height     int
	ready      bool
	animTick   int
	relocating bool
	statusMsg  string
}

// New creates a new TUI model reading from src.
func New(src Source) Model {
	return Model{
		src:       src,
		viewMode:  ViewDashboard,
		dashboard: NewDashboardModel(time.Local),
		skyView:   NewSkyViewModel(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		animTickCmd(),
		fetchSnapshot(m.src),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "1":
			m.viewMode = ViewDashboard
			return m, nil
		case "2":
			m.viewMode = ViewSky
			return m, nil
		case "tab":
			m.viewMode = (m.viewMode + 1) % 2
			return m, nil
		case "r":
			if m.relocating {
				return m, nil
			}
			m.relocating = true
			m.statusMsg = "Locating..."
			return m, relocateCmd(m.src)
		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		contentHeight := msg.Height - 8 // header and footer
		m.dashboard = m.dashboard.SetSize(msg.Width, contentHeight)
		m.skyView = m.skyView.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd(), fetchSnapshot(m.src))

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++

	case SnapshotMsg:
		m = m.applySnapshot(msg.Snapshot)

	case relocatedMsg:
		m.relocating = false
		if msg.fix.Located() {
			m.statusMsg = "Location: " + msg.fix.Observer.String()
		} else {
			m.statusMsg = "Still geocentric: " + msg.fix.Reason
		}
		cmds = append(cmds, fetchSnapshot(m.src))

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m Model) applySnapshot(s dashboard.Snapshot) Model {
	// Pushed and polled snapshots can arrive out of order.
	if s.At.Before(m.snapshot.At) {
		return m
	}
	m.snapshot = s
	m.dashboard = m.dashboard.UpdateData(s)
	m.skyView = m.skyView.UpdateData(s.Sky)
	return m
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case ViewSky:
		m.skyView, cmd = m.skyView.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewDashboard:
		content = m.dashboard.View()
	case ViewSky:
		content = m.skyView.View()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(renderGradient("LS-SPACELIGHT"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(fmt.Sprintf("  v%s · what's up tonight", version.Version)))
	b.WriteString("\n  ")
	b.WriteString(m.renderLocation())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderLocation() string {
	fix := m.snapshot.Fix
	modeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	if !fix.Located() {
		s := modeStyle.Render(fix.Mode.Label())
		if fix.Reason != "" {
			s += dimStyle.Render(" (" + fix.Reason + ")")
		}
		return s
	}
	return modeStyle.Render(fix.Mode.Label()) + dimStyle.Render(" · "+fix.Observer.String())
}

// renderGradient renders text with a horizontal blue to pink gradient.
func renderGradient(text string) string {
	runes := []rune(text)
	var b strings.Builder
	for i, r := range runes {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(gradientColor(i, len(runes))))
		b.WriteString(style.Render(string(r)))
	}
	return b.String()
}

// gradientColor returns a hex color for position col of width.
// Blue (#3B82F6) -> Purple (#8B5CF6) -> Magenta (#D946EF) -> Pink (#EC4899)
func gradientColor(col, width int) string {
	if width <= 1 {
		return "#3B82F6"
	}
	x := float64(col) / float64(width-1)

	var r, g, b float64
	switch {
	case x < 0.33:
		t := x / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	case x < 0.66:
		t := (x - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	default:
		t := (x - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	return fmt.Sprintf("#%02X%02X%02X", clampByte(r), clampByte(g), clampByte(b))
}

func clampByte(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return int(math.Round(v))
	}
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Dashboard", "[2] Sky"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m Model) renderFooter() string {
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	sky := m.snapshot.Sky
	switch {
	case sky.LastError != nil:
		status = errorStyle.Render("ERROR: " + sky.LastError.Error())
	case !sky.LastUpdate.IsZero():
		status = accentStyle.Render(spinner) + dimStyle.Render(" sky at "+sky.LastUpdate.In(time.Local).Format("15:04:05"))
		if r := sky.Report; r != nil && r.Duration > 0 {
			status += dimStyle.Render(" (" + r.Duration.Round(time.Millisecond).String() + ")")
		}
	default:
		status = accentStyle.Render(spinner) + dimStyle.Render(" Waiting for data...")
	}

	var help string
	switch m.viewMode {
	case ViewSky:
		help = "j/k: focus | ←/→: pan | l: labels | r: relocate | tab: switch view | q: quit"
	default:
		help = "↑↓: launches | r: relocate | tab: switch view | q: quit"
	}

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + dimStyle.Render(help)
	if m.statusMsg != "" {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}
	return footer
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(animTickInterval, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

func fetchSnapshot(src Source) tea.Cmd {
	return func() tea.Msg {
		return SnapshotMsg{Snapshot: src.Snapshot()}
	}
}

func relocateCmd(src Source) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), relocateTimeout)
		defer cancel()
		return relocatedMsg{fix: src.Relocate(ctx)}
	}
}

// SendSnapshot returns a command that delivers s to the model.
func SendSnapshot(s dashboard.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return SnapshotMsg{Snapshot: s}
	}
}
