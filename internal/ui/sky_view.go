package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-spacelight/internal/astro"
	"github.com/litescript/ls-spacelight/internal/ephem"
	"github.com/litescript/ls-spacelight/internal/sky"
	"github.com/litescript/ls-spacelight/internal/state"
)

const (
	// Field of view in degrees. The camera always looks at 45° so the
	// whole span from horizon to zenith fits vertically.
	fovAz = 180.0
	fovEl = 90.0
	camEl = 45.0

	// Manual pan step for left/right keys
	panStep = 15.0

	// Animation
	animDuration  = 400 * time.Millisecond
	animFrameRate = 30 * time.Millisecond

	glyphFocusMarker = '◆'

	colorBody        = "#d0c8ff"
	colorBodyFocused = "229" // bright gold
	colorSun         = "#FFD700"
	colorMoon        = "255"
)

// LabelMode controls how body labels are displayed.
type LabelMode int

const (
	LabelNone    LabelMode = iota // No labels
	LabelFocused                  // Only focused body
	LabelAll                      // All bodies
)

// SkyViewModel renders the sky dome with the visible bodies.
type SkyViewModel struct {
	width  int
	height int

	// Camera azimuth (center of view)
	camAz float64

	// Animation state
	animating   bool
	animStartAz float64
	animTargAz  float64
	animStart   time.Time

	focusIdx int
	visible  []sky.BodyPosition // above the horizon, highest first
	located  bool
	observer astro.Observer

	labelMode LabelMode
}

type animTickMsg time.Time

// NewSkyViewModel creates a new sky view model facing south.
func NewSkyViewModel() SkyViewModel {
	return SkyViewModel{
		camAz:     180,
		labelMode: LabelAll,
	}
}

// SetSize updates the viewport size.
func (m SkyViewModel) SetSize(width, height int) SkyViewModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates with a new sky snapshot.
func (m SkyViewModel) UpdateData(snapshot state.Snapshot) SkyViewModel {
	r := snapshot.Report
	if r == nil {
		m.visible = nil
		m.located = false
		return m
	}

	var focused ephem.Body = -1
	if m.focusIdx < len(m.visible) {
		focused = m.visible[m.focusIdx].Body
	}

	m.located = r.Located()
	m.observer = r.Fix.Observer
	m.visible, _ = sky.Partition(sky.SortForDisplay(r.Bodies))

	// Keep focus on the same body across refreshes when it is still up
	m.focusIdx = 0
	for i, p := range m.visible {
		if p.Body == focused {
			m.focusIdx = i
			break
		}
	}
	return m
}

func animTick() tea.Cmd {
	return tea.Tick(animFrameRate, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

// Update handles messages.
func (m SkyViewModel) Update(msg tea.Msg) (SkyViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			return m.focusPrev()
		case "down", "j":
			return m.focusNext()
		case "left", "h":
			m.animating = false
			m.camAz = astro.NormalizeDegrees(m.camAz - panStep)
		case "right":
			m.animating = false
			m.camAz = astro.NormalizeDegrees(m.camAz + panStep)
		case "l":
			m = m.cycleLabelMode()
		}

	case animTickMsg:
		if m.animating {
			return m.updateAnimation()
		}
	}

	return m, nil
}

func (m SkyViewModel) cycleLabelMode() SkyViewModel {
	m.labelMode = (m.labelMode + 1) % 3
	return m
}

func (m SkyViewModel) focusNext() (SkyViewModel, tea.Cmd) {
	if len(m.visible) == 0 {
		return m, nil
	}
	m.focusIdx = (m.focusIdx + 1) % len(m.visible)
	return m.startAnimation()
}

func (m SkyViewModel) focusPrev() (SkyViewModel, tea.Cmd) {
	if len(m.visible) == 0 {
		return m, nil
	}
	m.focusIdx--
	if m.focusIdx < 0 {
		m.focusIdx = len(m.visible) - 1
	}
	return m.startAnimation()
}

func (m SkyViewModel) startAnimation() (SkyViewModel, tea.Cmd) {
	if m.focusIdx >= len(m.visible) {
		return m, nil
	}

	m.animating = true
	m.animStartAz = m.camAz
	m.animTargAz = m.visible[m.focusIdx].AzimuthDeg
	m.animStart = time.Now()

	return m, animTick()
}

func (m SkyViewModel) updateAnimation() (SkyViewModel, tea.Cmd) {
	t := float64(time.Since(m.animStart)) / float64(animDuration)

	if t >= 1.0 {
		m.animating = false
		m.camAz = astro.NormalizeDegrees(m.animTargAz)
		return m, nil
	}

	// Ease-out cubic
	t = 1 - math.Pow(1-t, 3)
	m.camAz = astro.NormalizeDegrees(lerpAngle(m.animStartAz, m.animTargAz, t))

	return m, animTick()
}

// View renders the sky view.
func (m SkyViewModel) View() string {
	if m.width < 20 || m.height < 10 {
		return "Sky view requires larger terminal"
	}
	if !m.located {
		return dimStyle.Render("The sky view needs a location. Press r to retry, or start with -lat/-lon.")
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSkyCanvas(m.width, m.height-4))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m SkyViewModel) renderHeader() string {
	viewTitle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135")).Render("Sky View")
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorBody))

	var labelStr string
	switch m.labelMode {
	case LabelNone:
		labelStr = dimStyle.Render("Labels: off")
	case LabelFocused:
		labelStr = accentStyle.Render("Labels: focus")
	case LabelAll:
		labelStr = accentStyle.Render("Labels: all")
	}

	facing := dimStyle.Render(fmt.Sprintf("Facing %s (%.0f°)", astro.CompassPoint(m.camAz), m.camAz))
	return fmt.Sprintf("%s | %s | %s | %s", viewTitle, dimStyle.Render(m.observer.String()), labelStr, facing)
}

func (m SkyViewModel) renderStatus() string {
	if len(m.visible) == 0 {
		return dimStyle.Render("Nothing above the horizon")
	}
	if m.focusIdx >= len(m.visible) {
		return ""
	}

	p := m.visible[m.focusIdx]
	line := fmt.Sprintf(">>> %s %s | Alt:%.1f° Az:%.1f° %s | Mag %s",
		p.Body.Symbol(), p.Body, p.AltitudeDeg, p.AzimuthDeg, astro.CompassPoint(p.AzimuthDeg), magnitudeText(p))
	return lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Render(line)
}

// bodyPos tracks a projected body for label rendering.
type bodyPos struct {
	x, y      int
	name      string
	isFocused bool
}

func (m SkyViewModel) renderSkyCanvas(width, height int) string {
	canvas := make([][]rune, height)
	colors := make([][]lipgloss.Color, height)
	for y := 0; y < height; y++ {
		canvas[y] = make([]rune, width)
		colors[y] = make([]lipgloss.Color, width)
		for x := 0; x < width; x++ {
			canvas[y][x] = ' '
			colors[y][x] = "236"
		}
	}

	horizonY := height - 2

	for x := 0; x < width; x++ {
		canvas[horizonY][x] = '─'
		colors[horizonY][x] = "60"
	}
	for _, c := range []struct {
		label string
		az    float64
	}{{"N", 0}, {"E", 90}, {"S", 180}, {"W", 270}} {
		m.drawCardinal(canvas, colors, width, height, c.label, c.az)
	}

	var positions []bodyPos
	for i, p := range m.visible {
		x, y, ok := m.projectToScreen(p.AzimuthDeg, p.AltitudeDeg, width, height)
		if !ok || x < 0 || x >= width || y < 0 || y >= horizonY {
			continue
		}

		isFocused := i == m.focusIdx
		glyph := []rune(p.Body.Symbol())[0]
		color := bodyColor(p.Body)
		if isFocused {
			color = colorBodyFocused
			if x > 0 {
				canvas[y][x-1] = glyphFocusMarker
				colors[y][x-1] = colorBodyFocused
			}
		}
		canvas[y][x] = glyph
		colors[y][x] = color

		positions = append(positions, bodyPos{x: x, y: y, name: p.Body.String(), isFocused: isFocused})
	}

	m.renderLabels(canvas, colors, width, horizonY, positions)

	// Observer marker at bottom center
	if stationY, stationX := height-1, width/2; stationY >= 0 {
		canvas[stationY][stationX] = '▲'
		colors[stationY][stationX] = "46"
	}

	var b strings.Builder
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			style := lipgloss.NewStyle().Foreground(colors[y][x])
			b.WriteString(style.Render(string(canvas[y][x])))
		}
		if y < height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderLabels draws body names to the right of their glyphs.
// Focused labels are drawn last so they win overlaps.
func (m SkyViewModel) renderLabels(canvas [][]rune, colors [][]lipgloss.Color, width, horizonY int, positions []bodyPos) {
	if m.labelMode == LabelNone {
		return
	}

	draw := func(pos bodyPos) {
		color := lipgloss.Color(colorBody)
		if pos.isFocused {
			color = colorBodyFocused
		}
		for i, r := range []rune(pos.name) {
			x := pos.x + 2 + i
			if x >= width || pos.y < 0 || pos.y >= horizonY {
				return
			}
			canvas[pos.y][x] = r
			colors[pos.y][x] = color
		}
	}

	if m.labelMode == LabelAll {
		for _, pos := range positions {
			if !pos.isFocused {
				draw(pos)
			}
		}
	}
	for _, pos := range positions {
		if pos.isFocused {
			draw(pos)
		}
	}
}

func bodyColor(b ephem.Body) lipgloss.Color {
	switch b {
	case ephem.Sun:
		return colorSun
	case ephem.Moon:
		return colorMoon
	default:
		return colorBody
	}
}

func (m SkyViewModel) drawCardinal(canvas [][]rune, colors [][]lipgloss.Color, width, height int, label string, az float64) {
	x, _, visible := m.projectToScreen(az, 0, width, height)
	if !visible {
		return
	}
	y := height - 2 // horizon line

	if x >= 0 && x < width && y >= 0 && y < height {
		canvas[y][x] = rune(label[0])
		colors[y][x] = "252"
	}
}

// projectToScreen converts az/el to screen coordinates relative to the camera.
func (m SkyViewModel) projectToScreen(az, el float64, width, height int) (int, int, bool) {
	dAz := normalizeAngle(az - m.camAz)
	dEl := el - camEl

	if dAz < -fovAz/2 || dAz > fovAz/2 {
		return 0, 0, false
	}
	if dEl < -fovEl/2 || dEl > fovEl/2 {
		return 0, 0, false
	}

	// X: -fovAz/2..+fovAz/2 -> 0..width
	// Y: +fovEl/2..-fovEl/2 -> 0..horizonY
	horizonY := height - 2

	x := int((dAz + fovAz/2) / fovAz * float64(width))
	y := int((fovEl/2 - dEl) / fovEl * float64(horizonY))

	return x, y, true
}

// normalizeAngle wraps angle to -180..+180 range
func normalizeAngle(a float64) float64 {
	for a > 180 {
		a -= 360
	}
	for a < -180 {
		a += 360
	}
	return a
}

// lerpAngle interpolates between angles, taking shortest path
func lerpAngle(a, b, t float64) float64 {
	diff := normalizeAngle(b - a)
	return a + diff*t
}

// Init returns nil cmd
func (m SkyViewModel) Init() tea.Cmd {
	return nil
}
