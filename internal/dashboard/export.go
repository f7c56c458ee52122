package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/litescript/ls-spacelight/internal/astro"
	"github.com/litescript/ls-spacelight/internal/feed"
	"github.com/litescript/ls-spacelight/internal/sky"
	"github.com/litescript/ls-spacelight/internal/sources"
	"github.com/litescript/ls-spacelight/internal/state"
)

// SnapshotExport is the JSON-serializable representation of a Snapshot.
type SnapshotExport struct {
	Timestamp    time.Time             `json:"timestamp"`
	Location     LocationExport        `json:"location"`
	SkyCondition string                `json:"sky_condition,omitempty"`
	Bodies       []BodyExport          `json:"bodies"`
	Moon         *sky.MoonState        `json:"moon,omitempty"`
	Aurora       *sky.AuroraAssessment `json:"aurora,omitempty"`
	Kp           *KpExport             `json:"kp,omitempty"`
	ISS          *sources.ISSPosition  `json:"iss,omitempty"`
	Launches     []sources.Launch      `json:"launches,omitempty"`
	Crew         *sources.Crew         `json:"crew,omitempty"`
	Headline     *sources.Article      `json:"headline,omitempty"`
	Feeds        []FeedStatus          `json:"feeds"`
	Events       []state.Event         `json:"events,omitempty"`
}

// LocationExport describes the observer and how it was found.
type LocationExport struct {
	Mode   string  `json:"mode"`
	Label  string  `json:"label"`
	Name   string  `json:"name,omitempty"`
	LatDeg float64 `json:"lat,omitempty"`
	LonDeg float64 `json:"lon,omitempty"`
	Reason string  `json:"reason,omitempty"`
}

// BodyExport is a JSON-friendly body position.
type BodyExport struct {
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Visible     bool     `json:"visible"`
	AltitudeDeg float64  `json:"altitude_deg"`
	AzimuthDeg  float64  `json:"azimuth_deg"`
	Compass     string   `json:"compass,omitempty"`
	Magnitude   *float64 `json:"magnitude,omitempty"`
	RAdeg       float64  `json:"ra_deg"`
	DecDeg      float64  `json:"dec_deg"`
}

// KpExport is the current Kp with its recent history.
type KpExport struct {
	Current float64   `json:"current"`
	Level   string    `json:"level"`
	At      time.Time `json:"at"`
	History []float64 `json:"history"`
}

// FeedStatus is the health of one feed.
type FeedStatus struct {
	Name                string    `json:"name"`
	HasValue            bool      `json:"has_value"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	Stale               bool      `json:"stale"`
	LastSuccessAt       time.Time `json:"last_success_at,omitempty"`
	LastError           string    `json:"last_error,omitempty"`
}

func feedStatus[T any](s feed.Snapshot[T], at time.Time) FeedStatus {
	fs := FeedStatus{
		Name:                s.Name,
		HasValue:            s.HasValue,
		ConsecutiveFailures: s.ConsecutiveFailures,
		Stale:               s.Stale(at),
		LastSuccessAt:       s.LastSuccessAt,
	}
	if s.LastError != nil {
		fs.LastError = s.LastError.Error()
	}
	return fs
}

// FeedStatuses returns the health of every feed in display order.
func (s Snapshot) FeedStatuses() []FeedStatus {
	return []FeedStatus{
		feedStatus(s.ISS, s.At),
		feedStatus(s.Kp, s.At),
		feedStatus(s.Launches, s.At),
		feedStatus(s.Crew, s.At),
		feedStatus(s.News, s.At),
		feedStatus(s.TLE, s.At),
	}
}

// Export converts a Snapshot to its exportable form.
func (s Snapshot) Export() *SnapshotExport {
	e := &SnapshotExport{
		Timestamp: s.At,
		Location: LocationExport{
			Mode:   s.Fix.Mode.String(),
			Label:  s.Fix.Mode.Label(),
			Reason: s.Fix.Reason,
		},
		Feeds:  s.FeedStatuses(),
		Events: s.Sky.Events,
	}
	if s.Fix.Located() {
		e.Location.Name = s.Fix.Observer.Name
		e.Location.LatDeg = s.Fix.Observer.LatDeg
		e.Location.LonDeg = s.Fix.Observer.LonDeg
	}

	if r := s.Sky.Report; r != nil {
		if r.Condition != nil {
			e.SkyCondition = r.Condition.String()
		}
		for _, p := range sky.SortForDisplay(r.Bodies) {
			b := BodyExport{
				Name:        p.Body.String(),
				Symbol:      p.Body.Symbol(),
				Visible:     p.Visible,
				AltitudeDeg: round(p.AltitudeDeg, 2),
				AzimuthDeg:  round(p.AzimuthDeg, 2),
				RAdeg:       round(p.RAdeg, 4),
				DecDeg:      round(p.DecDeg, 4),
			}
			if p.Topocentric {
				b.Compass = astro.CompassPoint(p.AzimuthDeg)
			}
			if p.MagnitudeKnown {
				m := round(p.Magnitude, 2)
				b.Magnitude = &m
			}
			e.Bodies = append(e.Bodies, b)
		}
		moon := r.Moon
		e.Moon = &moon
		e.Aurora = r.Aurora
	}

	if cur, ok := s.Sky.CurrentKp(); ok {
		e.Kp = &KpExport{
			Current: cur.Kp,
			Level:   sky.KpLevel(cur.Kp),
			At:      cur.Time,
			History: sources.KpSeries(s.Sky.KpHistory).Values(),
		}
	}
	if s.ISS.HasValue {
		iss := s.ISS.Value
		e.ISS = &iss
	}
	if s.Launches.HasValue {
		e.Launches = s.Launches.Value
	}
	if s.Crew.HasValue {
		crew := s.Crew.Value
		e.Crew = &crew
	}
	if s.News.HasValue {
		a := s.News.Value
		e.Headline = &a
	}
	return e
}

// WriteJSON writes the snapshot as JSON to the given writer.
func (e *SnapshotExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// WriteSummary writes a text summary of the snapshot. Times are shown in loc.
func WriteSummary(w io.Writer, s Snapshot, loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}

	fmt.Fprintf(w, "Sky over %s @ %s\n", s.Fix.Observer, s.At.In(loc).Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(w, "Mode: %s", s.Fix.Mode.Label())
	if s.Fix.Reason != "" {
		fmt.Fprintf(w, " (%s)", s.Fix.Reason)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("─", 72))

	writeSky(w, s, loc)
	writeAurora(w, s)
	writeISS(w, s)
	writeLaunches(w, s, loc)
	writeCrew(w, s)
	writeHeadline(w, s)
	writeFeedProblems(w, s)
	writeEvents(w, s.Sky.Events, 5, loc)
}

func writeSky(w io.Writer, s Snapshot, loc *time.Location) {
	r := s.Sky.Report
	if r == nil {
		fmt.Fprintln(w, "Sky: computing...")
		return
	}
	if r.Condition != nil {
		fmt.Fprintf(w, "Sky: %s\n", r.Condition)
	}

	visible, below := sky.Partition(sky.SortForDisplay(r.Bodies))
	if r.Located() {
		fmt.Fprintln(w, "\nVisible now")
		if len(visible) == 0 {
			fmt.Fprintln(w, "  Nothing above the horizon")
		}
		for _, p := range visible {
			fmt.Fprintf(w, "  %s %-8s alt %5.1f°  az %5.1f° %-3s  %s\n",
				p.Body.Symbol(), p.Body, p.AltitudeDeg, p.AzimuthDeg, astro.CompassPoint(p.AzimuthDeg), formatMag(p))
		}
		fmt.Fprintln(w, "\nBelow horizon")
		names := make([]string, len(below))
		for i, p := range below {
			names[i] = p.Body.String()
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(names, ", "))
	} else {
		fmt.Fprintln(w, "\nBodies (geocentric, no horizon)")
		for _, p := range r.Bodies {
			fmt.Fprintf(w, "  %s %-8s RA %6.2f°  Dec %+6.2f°  %s\n",
				p.Body.Symbol(), p.Body, p.RAdeg, p.DecDeg, formatMag(p))
		}
	}

	m := r.Moon
	fmt.Fprintf(w, "\nMoon: %s %s, %d%% lit", m.Phase.Symbol(), m.Phase, m.IlluminationPercent)
	if !m.Geocentric {
		fmt.Fprintf(w, ", rise %s, set %s", formatEventTime(m.Rise, loc), formatEventTime(m.Set, loc))
	}
	fmt.Fprintln(w)
}

func writeAurora(w io.Writer, s Snapshot) {
	cur, ok := s.Sky.CurrentKp()
	if !ok {
		fmt.Fprintf(w, "Aurora: Kp unavailable%s\n", failureNote(s.Kp.ConsecutiveFailures))
		return
	}
	fmt.Fprintf(w, "Aurora: Kp %.1f (%s)", cur.Kp, sky.KpLevel(cur.Kp))
	if a := s.Sky.Report; a != nil && a.Aurora != nil {
		verdict := "unlikely"
		if a.Aurora.LikelyVisible {
			verdict = "LIKELY"
		}
		fmt.Fprintf(w, ", needs Kp %d here: %s", a.Aurora.RequiredKp, verdict)
	}
	fmt.Fprintln(w)
}

func writeISS(w io.Writer, s Snapshot) {
	if !s.ISS.HasValue {
		fmt.Fprintf(w, "ISS: position unavailable%s\n", failureNote(s.ISS.ConsecutiveFailures))
		return
	}
	p := s.ISS.Value
	fmt.Fprintf(w, "ISS: %s  alt %.0f km  %.0f km/h  [%s]\n",
		formatLatLon(p.Latitude, p.Longitude), p.AltitudeKm, p.VelocityKmh, p.Source)
}

func writeLaunches(w io.Writer, s Snapshot, loc *time.Location) {
	if !s.Launches.HasValue {
		fmt.Fprintf(w, "Launches: unavailable%s\n", failureNote(s.Launches.ConsecutiveFailures))
		return
	}
	fmt.Fprintln(w, "\nUpcoming launches")
	if len(s.Launches.Value) == 0 {
		fmt.Fprintln(w, "  None scheduled")
	}
	for _, l := range s.Launches.Value {
		fmt.Fprintf(w, "  %-5s %s  %-40s %s\n",
			truncateStr(l.Badge(), 5), l.NET.In(loc).Format("Jan 02 15:04"), truncateStr(l.Name, 40), truncateStr(l.Location, 30))
	}
}

func writeCrew(w io.Writer, s Snapshot) {
	if !s.Crew.HasValue {
		fmt.Fprintf(w, "\nIn space: unavailable%s\n", failureNote(s.Crew.ConsecutiveFailures))
		return
	}
	var parts []string
	for _, g := range s.Crew.Value.ByCraft() {
		parts = append(parts, fmt.Sprintf("%s %d", g.Craft, len(g.People)))
	}
	fmt.Fprintf(w, "\nIn space: %d (%s)\n", s.Crew.Value.Number, strings.Join(parts, ", "))
}

func writeHeadline(w io.Writer, s Snapshot) {
	if !s.News.HasValue {
		return
	}
	fmt.Fprintf(w, "Headline: %s (%s)\n", s.News.Value.Title, s.News.Value.Site)
}

func writeFeedProblems(w io.Writer, s Snapshot) {
	for _, f := range s.FeedStatuses() {
		switch {
		case f.ConsecutiveFailures > 0:
			fmt.Fprintf(w, "! %s: %d consecutive failures: %s\n", f.Name, f.ConsecutiveFailures, f.LastError)
		case f.Stale:
			fmt.Fprintf(w, "! %s: stale, last updated %s ago\n", f.Name, s.At.Sub(f.LastSuccessAt).Round(time.Second))
		}
	}
}

func writeEvents(w io.Writer, events []state.Event, n int, loc *time.Location) {
	if len(events) == 0 {
		return
	}
	if len(events) > n {
		events = events[len(events)-n:]
	}
	fmt.Fprintln(w, "\nRecent events")
	for _, e := range events {
		fmt.Fprintf(w, "  %s  %s\n", e.Timestamp.In(loc).Format("15:04:05"), DescribeEvent(e))
	}
}

// DescribeEvent returns a one-line description of a sky event.
func DescribeEvent(e state.Event) string {
	switch e.Type {
	case state.EventBodyRose:
		return fmt.Sprintf("%s rose in the %s", e.Body, e.Detail)
	case state.EventBodySet:
		return fmt.Sprintf("%s set in the %s", e.Body, e.Detail)
	case state.EventAuroraLikely:
		return fmt.Sprintf("Aurora likely (%s)", e.Detail)
	case state.EventLocationUpgraded:
		return fmt.Sprintf("Location found: %s", e.Detail)
	default:
		return string(e.Type)
	}
}

func formatMag(p sky.BodyPosition) string {
	if !p.MagnitudeKnown {
		return "mag  n/a"
	}
	return fmt.Sprintf("mag %+5.1f", p.Magnitude)
}

func formatEventTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "none"
	}
	return t.In(loc).Format("Jan 02 15:04")
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

func failureNote(failures int) string {
	if failures == 0 {
		return ""
	}
	return fmt.Sprintf(" (%d failed attempts)", failures)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-2]) + ".."
}
