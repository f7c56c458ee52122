package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-spacelight/internal/astro"
	"github.com/litescript/ls-spacelight/internal/sky"
)

// Visibility display colors
const (
	colorVisHigh   = "#7CFC00" // Lawn green - high elevation
	colorVisMedium = "#FFD700" // Gold - medium elevation
	colorVisLow    = "#FF6347" // Tomato - low elevation
	colorVisNone   = "#444444" // Dark gray - below horizon

	// Sky condition colors
	colorSkyDay      = "#FFD700"
	colorSkyTwilight = "#9D4EDD"
	colorSkyDark     = "#3478C0"
)

// RenderVisibilityBar renders a compact horizontal bar of every body's elevation.
// Format: ☉ ████   ☾ ░░░░   ♂ ██░░
func RenderVisibilityBar(bodies []sky.BodyPosition) string {
	if len(bodies) == 0 {
		return ""
	}

	parts := make([]string, 0, len(bodies))
	for _, p := range bodies {
		tier := astro.ElevationNone
		if p.Visible {
			tier = astro.GetElevationTier(p.AltitudeDeg)
		}
		parts = append(parts, renderBarSegment(p.Body.Symbol(), tier, p.Topocentric))
	}

	return strings.Join(parts, "   ")
}

// renderBarSegment renders one body's visibility bar segment.
func renderBarSegment(name string, tier astro.ElevationTier, valid bool) string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	label := labelStyle.Render(name + " ")

	if !valid {
		dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
		return label + dimStyle.Render("····")
	}

	bar := tierToBar(tier)
	color := tierToColor(tier)
	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(color))

	return label + barStyle.Render(bar)
}

// tierToBar converts elevation tier to a 4-character bar representation.
func tierToBar(tier astro.ElevationTier) string {
	switch tier {
	case astro.ElevationHigh:
		return "████"
	case astro.ElevationMedium:
		return "██░░"
	case astro.ElevationLow:
		return "█░░░"
	default:
		return "░░░░"
	}
}

// tierToColor returns the color for an elevation tier.
func tierToColor(tier astro.ElevationTier) string {
	switch tier {
	case astro.ElevationHigh:
		return colorVisHigh
	case astro.ElevationMedium:
		return colorVisMedium
	case astro.ElevationLow:
		return colorVisLow
	default:
		return colorVisNone
	}
}

// colorByTier applies tier-based coloring to text.
func colorByTier(tier astro.ElevationTier, text string) string {
	color := tierToColor(tier)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	return style.Render(text)
}

// RenderMoonWindow renders the Moon's next rise and set in loc.
// Format:
//
//	Rise 22:14   Set 09:30
//	Rise none in 30d   Set 04:12
func RenderMoonWindow(m sky.MoonState, loc *time.Location) string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	if m.Geocentric {
		return dimStyle.Render("Rise/set need a location")
	}
	return fmt.Sprintf("Rise %s   Set %s", clockOrNone(m.Rise, loc), clockOrNone(m.Set, loc))
}

func clockOrNone(t *time.Time, loc *time.Location) string {
	if t == nil {
		return fmt.Sprintf("none in %dd", sky.RiseSetWindowDays)
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("Jan 02 15:04")
}

// RenderSkyCondition renders the sky brightness label with a matching color.
func RenderSkyCondition(c astro.SkyCondition) string {
	color := colorSkyTwilight
	switch c {
	case astro.SkyDaylight:
		color = colorSkyDay
	case astro.SkyNight, astro.SkyAstronomicalTwilight:
		color = colorSkyDark
	}
	label := c.String()
	if c.GoodForStargazing() {
		label += " (good for stargazing)"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(label)
}
