package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-spacelight/internal/astro"
	"github.com/litescript/ls-spacelight/internal/dashboard"
	"github.com/litescript/ls-spacelight/internal/sky"
	"github.com/litescript/ls-spacelight/internal/sources"
)

// Styles for the dashboard
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("60"))

	likelyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1)
)

// wideLayoutWidth is the terminal width at which panels go side by side.
const wideLayoutWidth = 110

// DashboardModel is the main sky and space-activity view.
type DashboardModel struct {
	width    int
	height   int
	cursor   int
	snapshot dashboard.Snapshot
	loc      *time.Location
}

// NewDashboardModel creates a new dashboard model showing times in loc.
func NewDashboardModel(loc *time.Location) DashboardModel {
	if loc == nil {
		loc = time.Local
	}
	return DashboardModel{loc: loc}
}

// Init implements the Bubble Tea model interface.
func (m DashboardModel) Init() tea.Cmd {
	return nil
}

// SetSize updates the viewport size.
func (m DashboardModel) SetSize(width, height int) DashboardModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with new data.
func (m DashboardModel) UpdateData(snapshot dashboard.Snapshot) DashboardModel {
	m.snapshot = snapshot
	if n := len(m.launches()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	return m
}

// Update handles messages.
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		n := len(m.launches())
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < n-1 {
				m.cursor++
			}
		case "home":
			m.cursor = 0
		case "end":
			if n > 0 {
				m.cursor = n - 1
			}
		}
	}
	return m, nil
}

func (m DashboardModel) launches() []sources.Launch {
	if !m.snapshot.Launches.HasValue {
		return nil
	}
	return m.snapshot.Launches.Value
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	if m.snapshot.Sky.Report == nil && !m.anyFeed() {
		return "Waiting for sky data...\n"
	}

	left := []string{m.renderSkyPanel(), m.renderMoonPanel(), m.renderAuroraPanel()}
	right := []string{m.renderISSPanel(), m.renderLaunchesPanel(), m.renderCrewPanel(), m.renderNewsPanel()}
	if ev := m.renderEventsPanel(); ev != "" {
		right = append(right, ev)
	}

	if m.width >= wideLayoutWidth {
		colWidth := m.width/2 - 2
		return lipgloss.JoinHorizontal(lipgloss.Top,
			m.column(left, colWidth),
			m.column(right, colWidth),
		)
	}
	return strings.Join(append(left, right...), "\n\n")
}

func (m DashboardModel) column(panels []string, width int) string {
	rendered := make([]string, len(panels))
	for i, p := range panels {
		rendered[i] = panelStyle.Width(width).Render(p)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

func (m DashboardModel) anyFeed() bool {
	s := m.snapshot
	return s.ISS.HasValue || s.Kp.HasValue || s.News.HasValue || s.Launches.HasValue || s.Crew.HasValue
}

func (m DashboardModel) renderSkyPanel() string {
	var b strings.Builder
	r := m.snapshot.Sky.Report

	b.WriteString(titleStyle.Render("Sky"))
	if r == nil {
		b.WriteString("\n  Computing positions...")
		return b.String()
	}
	if r.Condition != nil {
		b.WriteString("  " + RenderSkyCondition(*r.Condition))
	}
	b.WriteString("\n")

	if !r.Located() {
		b.WriteString(dimStyle.Render("  No horizon in geocentric view"))
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s %8s %8s %8s", "Body", "RA", "Dec", "Mag")))
		b.WriteString("\n")
		for _, p := range r.Bodies {
			row := fmt.Sprintf("%s %-8s %7.2f° %+7.2f° %8s",
				p.Body.Symbol(), p.Body, p.RAdeg, p.DecDeg, magnitudeText(p))
			b.WriteString(rowStyle.Render(row) + "\n")
		}
		return strings.TrimRight(b.String(), "\n")
	}

	visible, below := sky.Partition(sky.SortForDisplay(r.Bodies))

	b.WriteString(RenderVisibilityBar(r.Bodies))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s %6s %6s %-3s %6s", "Visible", "Alt", "Az", "", "Mag")))
	b.WriteString("\n")
	if len(visible) == 0 {
		b.WriteString(dimStyle.Render("  Nothing above the horizon") + "\n")
	}
	for _, p := range visible {
		row := fmt.Sprintf("%s %-8s %5.1f° %5.1f° %-3s %6s",
			p.Body.Symbol(), p.Body, p.AltitudeDeg, p.AzimuthDeg, astro.CompassPoint(p.AzimuthDeg), magnitudeText(p))
		b.WriteString(colorByTier(astro.GetElevationTier(p.AltitudeDeg), row) + "\n")
	}

	if len(below) > 0 {
		names := make([]string, len(below))
		for i, p := range below {
			names[i] = p.Body.Symbol() + " " + p.Body.String()
		}
		b.WriteString("\n" + titleStyle.Render("Below horizon") + "\n")
		b.WriteString(dimStyle.Render("  " + strings.Join(names, ", ")))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m DashboardModel) renderMoonPanel() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Moon"))
	b.WriteString("\n")

	r := m.snapshot.Sky.Report
	if r == nil {
		b.WriteString("  Computing phase...")
		return b.String()
	}

	moon := r.Moon
	fmt.Fprintf(&b, "  %s %s  %s %d%%\n", moon.Phase.Symbol(), moon.Phase,
		renderIlluminationBar(moon.IlluminationPercent, 10), moon.IlluminationPercent)
	b.WriteString("  " + RenderMoonWindow(moon, m.loc))
	return b.String()
}

// renderIlluminationBar renders the lit fraction as a bar of width cells.
func renderIlluminationBar(percent, width int) string {
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("230"))
	return "[" + style.Render(bar) + "]"
}

func (m DashboardModel) renderAuroraPanel() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Aurora"))
	b.WriteString("\n")

	s := m.snapshot
	cur, ok := s.Sky.CurrentKp()
	if !ok {
		b.WriteString(dimStyle.Render("  Kp unavailable"))
		b.WriteString(staleNote(s.Kp.ConsecutiveFailures))
		return b.String()
	}

	fmt.Fprintf(&b, "  Kp %.1f  %s%s\n", cur.Kp, sky.KpLevel(cur.Kp), staleNote(s.Kp.ConsecutiveFailures))

	values := make([]float64, len(s.Sky.KpHistory))
	for i, k := range s.Sky.KpHistory {
		values[i] = k.Kp
	}
	b.WriteString("  " + renderKpSparkline(values, KpSparklineWidth))

	if r := s.Sky.Report; r != nil && r.Aurora != nil {
		b.WriteString("\n")
		verdict := dimStyle.Render("unlikely")
		if r.Aurora.LikelyVisible {
			verdict = likelyStyle.Render("LIKELY")
		}
		fmt.Fprintf(&b, "  Needs Kp %d here: %s", r.Aurora.RequiredKp, verdict)
	} else if r != nil && !r.Located() {
		b.WriteString("\n" + dimStyle.Render("  Local outlook needs a location"))
	}
	return b.String()
}

// KpSparklineWidth is the maximum number of samples shown in the Kp sparkline.
const KpSparklineWidth = 30

// sparklineBlocks are the Unicode block characters for sparkline (0 = lowest, 7 = highest).
var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// renderKpSparkline renders the most recent width Kp values on a fixed 0-9 scale.
func renderKpSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return dimStyle.Render("no history")
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	var sb strings.Builder
	for _, kp := range values {
		if kp < 0 {
			kp = 0
		}
		if kp > sky.MaxKp {
			kp = sky.MaxKp
		}
		idx := int(kp / sky.MaxKp * 7)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(kpColor(kp)))
		sb.WriteString(style.Render(string(sparklineBlocks[idx])))
	}
	return sb.String()
}

// kpColor returns a color on the NOAA storm scale.
func kpColor(kp float64) string {
	switch {
	case kp >= 7:
		return "#FF4500"
	case kp >= 5:
		return "#FFD700"
	case kp >= 4:
		return "#7CFC00"
	default:
		return "#3478C0"
	}
}

func (m DashboardModel) renderISSPanel() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ISS"))
	b.WriteString("\n")

	iss := m.snapshot.ISS
	if !iss.HasValue {
		b.WriteString(dimStyle.Render("  Position unavailable"))
		b.WriteString(staleNote(iss.ConsecutiveFailures))
		return b.String()
	}

	p := iss.Value
	fmt.Fprintf(&b, "  %s  alt %.0f km%s\n", formatLatLon(p.Latitude, p.Longitude), p.AltitudeKm, staleNote(iss.ConsecutiveFailures))
	fmt.Fprintf(&b, "  %.0f km/h", p.VelocityKmh)
	if p.Visibility != "" {
		fmt.Fprintf(&b, "  %s", p.Visibility)
	}
	if p.Source == sources.SourceSGP4 {
		b.WriteString(dimStyle.Render("  (predicted from TLE)"))
	}
	return b.String()
}

func (m DashboardModel) renderLaunchesPanel() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Upcoming launches"))
	b.WriteString("\n")

	l := m.snapshot.Launches
	if !l.HasValue {
		b.WriteString(dimStyle.Render("  Schedule unavailable"))
		b.WriteString(staleNote(l.ConsecutiveFailures))
		return b.String()
	}
	if len(l.Value) == 0 {
		b.WriteString("  None scheduled")
		return b.String()
	}

	maxRows := m.height/4 - 1
	if maxRows < 3 {
		maxRows = 3
	}
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}
	end := min(start+maxRows, len(l.Value))

	now := m.snapshot.At
	for i := start; i < end; i++ {
		launch := l.Value[i]
		row := fmt.Sprintf("%-5s %-14s %s", truncate(launch.Badge(), 5), formatCountdown(launch.Until(now)), truncate(launch.Name, 36))
		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render(row))
		} else {
			b.WriteString(rowStyle.Render(row))
		}
		b.WriteString("\n")
	}
	if sel := l.Value[m.cursor]; sel.Location != "" || sel.Provider != "" {
		b.WriteString(dimStyle.Render("  " + joinNonEmpty(" · ", sel.Provider, sel.Location)))
	}
	if len(l.Value) > maxRows {
		fmt.Fprintf(&b, "\n  Showing %d-%d of %d", start+1, end, len(l.Value))
	}
	b.WriteString(staleNote(l.ConsecutiveFailures))
	return strings.TrimRight(b.String(), "\n")
}

func (m DashboardModel) renderCrewPanel() string {
	var b strings.Builder
	c := m.snapshot.Crew
	if !c.HasValue {
		b.WriteString(titleStyle.Render("In space"))
		b.WriteString("\n" + dimStyle.Render("  Crew unavailable"))
		b.WriteString(staleNote(c.ConsecutiveFailures))
		return b.String()
	}

	b.WriteString(titleStyle.Render(fmt.Sprintf("In space: %d", c.Value.Number)))
	b.WriteString(staleNote(c.ConsecutiveFailures))
	for _, g := range c.Value.ByCraft() {
		fmt.Fprintf(&b, "\n  %-10s %s", truncate(g.Craft, 10), truncate(strings.Join(g.People, ", "), 60))
	}
	return b.String()
}

func (m DashboardModel) renderNewsPanel() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Headline"))
	b.WriteString("\n")

	n := m.snapshot.News
	if !n.HasValue {
		b.WriteString(dimStyle.Render("  No headline"))
		b.WriteString(staleNote(n.ConsecutiveFailures))
		return b.String()
	}
	b.WriteString("  " + truncate(n.Value.Title, 80))
	if n.Value.Site != "" {
		b.WriteString(dimStyle.Render(" (" + n.Value.Site + ")"))
	}
	b.WriteString(staleNote(n.ConsecutiveFailures))
	return b.String()
}

// eventRows is how many recent events the dashboard shows.
const eventRows = 5

func (m DashboardModel) renderEventsPanel() string {
	events := m.snapshot.Sky.Events
	if len(events) == 0 {
		return ""
	}
	if len(events) > eventRows {
		events = events[len(events)-eventRows:]
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Recent events"))
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		fmt.Fprintf(&b, "\n  %s  %s", dimStyle.Render(e.Timestamp.In(m.loc).Format("15:04:05")), dashboard.DescribeEvent(e))
	}
	return b.String()
}

func magnitudeText(p sky.BodyPosition) string {
	if !p.MagnitudeKnown {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f", p.Magnitude)
}

// staleNote marks a panel whose feed has been failing.
func staleNote(failures int) string {
	if failures == 0 {
		return ""
	}
	return errorStyle.Render(fmt.Sprintf("  ⚠ stale (%d failed)", failures))
}

// formatCountdown renders a launch countdown as T-[Nd ]HH:MM:SS, or T+ once past.
func formatCountdown(d time.Duration) string {
	sign := "-"
	if d < 0 {
		sign = "+"
		d = -d
	}
	d = d.Truncate(time.Second)
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	mins := int(d / time.Minute)
	d -= time.Duration(mins) * time.Minute
	secs := int(d / time.Second)

	if days > 0 {
		return fmt.Sprintf("T%s%dd %02d:%02d:%02d", sign, days, h, mins, secs)
	}
	return fmt.Sprintf("T%s%02d:%02d:%02d", sign, h, mins, secs)
}

func formatLatLon(lat, lon float64) string {
	ns, ew := "N", "E"
	if lat < 0 {
		ns, lat = "S", -lat
	}
	if lon < 0 {
		ew, lon = "W", -lon
	}
	return fmt.Sprintf("%.2f°%s %.2f°%s", lat, ns, lon, ew)
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
