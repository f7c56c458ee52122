// Package state holds the sky refresh task's latest report, the Kp history
// and the event log, with thread-safe access for readers.
package state

import (
	"sync"
	"time"

	"github.com/litescript/ls-spacelight/internal/astro"
	"github.com/litescript/ls-spacelight/internal/ephem"
	"github.com/litescript/ls-spacelight/internal/location"
	"github.com/litescript/ls-spacelight/internal/sky"
	"github.com/litescript/ls-spacelight/internal/sources"
)

// EventType represents the type of sky change event.
type EventType string

const (
	EventBodyRose         EventType = "BODY_ROSE"
	EventBodySet          EventType = "BODY_SET"
	EventAuroraLikely     EventType = "AURORA_LIKELY"
	EventLocationUpgraded EventType = "LOCATION_UPGRADED"
)

// Event represents a change between two sky reports.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Body      string    `json:"body,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// SkyReport is the output of one sky pass.
type SkyReport struct {
	At        time.Time             `json:"at"`
	Fix       location.Fix          `json:"location"`
	Bodies    []sky.BodyPosition    `json:"bodies"`
	Moon      sky.MoonState         `json:"moon"`
	Condition *astro.SkyCondition   `json:"sky_condition,omitempty"` // nil without a location
	Aurora    *sky.AuroraAssessment `json:"aurora,omitempty"` // nil without a location or Kp
	Duration  time.Duration         `json:"-"`
}

// Located reports whether the report is horizon-relative.
func (r SkyReport) Located() bool {
	return r.Fix.Located()
}

func (r SkyReport) clone() SkyReport {
	out := r
	out.Bodies = make([]sky.BodyPosition, len(r.Bodies))
	copy(out.Bodies, r.Bodies)
	if r.Aurora != nil {
		a := *r.Aurora
		out.Aurora = &a
	}
	if r.Condition != nil {
		c := *r.Condition
		out.Condition = &c
	}
	return out
}

// Manager handles sky state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Current state
	current    *SkyReport
	lastUpdate time.Time
	lastError  error

	// Previous visibility for event detection
	prevVisible map[ephem.Body]bool

	// Kp history, oldest first
	kpHistory    []sources.KpSample
	maxKpHistory int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	now func() time.Time
}

// Config holds configuration for the state manager.
type Config struct {
	MaxKpHistory int
	MaxEvents    int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxKpHistory: sources.KpHistoryLen, // One hour of 1-minute samples
		MaxEvents:    50,                   // Last 50 events
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	maxKp := cfg.MaxKpHistory
	if maxKp <= 0 {
		maxKp = sources.KpHistoryLen
	}
	return &Manager{
		maxKpHistory: maxKp,
		maxEvents:    maxEvents,
		events:       make([]Event, 0, maxEvents),
		prevVisible:  make(map[ephem.Body]bool),
		now:          time.Now,
	}
}

// Update installs a new sky report. A nil report with an error records the
// failure and keeps the previous report.
func (m *Manager) Update(report *SkyReport, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastUpdate = m.now()
	m.lastError = err

	if report == nil {
		return
	}

	r := report.clone()
	r.Aurora = m.assessAurora(r.Fix)

	// Detect events before updating current state
	m.detectEvents(&r)

	m.current = &r

	// Update prevVisible for next comparison
	m.prevVisible = make(map[ephem.Body]bool, len(r.Bodies))
	for _, b := range r.Bodies {
		m.prevVisible[b.Body] = b.Visible
	}
}

// detectEvents compares a new report with the previous one and generates events.
func (m *Manager) detectEvents(next *SkyReport) {
	prev := m.current
	if prev == nil {
		return
	}
	now := m.now()

	if !prev.Located() && next.Located() {
		m.addEvent(Event{
			Type:      EventLocationUpgraded,
			Timestamp: now,
			Detail:    next.Fix.Observer.String(),
		})
	}

	// Rise/set only makes sense between two reports for the same observer.
	if prev.Located() && next.Located() && prev.Fix.Observer == next.Fix.Observer {
		for _, b := range next.Bodies {
			was, known := m.prevVisible[b.Body]
			if !known || was == b.Visible {
				continue
			}
			typ := EventBodySet
			if b.Visible {
				typ = EventBodyRose
			}
			m.addEvent(Event{
				Type:      typ,
				Timestamp: now,
				Body:      b.Body.String(),
				Detail:    astro.CompassPoint(b.AzimuthDeg),
			})
		}
	}

	m.checkAuroraTransition(prev.Aurora, next.Aurora, now)
}

func (m *Manager) checkAuroraTransition(prev, next *sky.AuroraAssessment, now time.Time) {
	if next == nil || !next.LikelyVisible {
		return
	}
	if prev != nil && prev.LikelyVisible {
		return
	}
	m.addEvent(Event{
		Type:      EventAuroraLikely,
		Timestamp: now,
		Detail:    sky.KpLevel(next.CurrentKp),
	})
}

// assessAurora compares the latest Kp against the threshold for fix.
func (m *Manager) assessAurora(fix location.Fix) *sky.AuroraAssessment {
	if !fix.Located() || len(m.kpHistory) == 0 {
		return nil
	}
	kp := m.kpHistory[len(m.kpHistory)-1].Kp
	a := sky.AssessAt(fix.Observer.LatDeg, kp)
	return &a
}

// AddKp merges new Kp samples into the history and re-assesses the aurora
// for the current report. Samples not newer than the latest are ignored.
func (m *Manager) AddKp(samples ...sources.KpSample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := false
	for _, s := range samples {
		if n := len(m.kpHistory); n > 0 && !s.Time.After(m.kpHistory[n-1].Time) {
			continue
		}
		m.kpHistory = append(m.kpHistory, s)
		added = true
	}
	if len(m.kpHistory) > m.maxKpHistory {
		m.kpHistory = m.kpHistory[len(m.kpHistory)-m.maxKpHistory:]
	}

	if !added || m.current == nil {
		return
	}
	prev := m.current.Aurora
	m.current.Aurora = m.assessAurora(m.current.Fix)
	m.checkAuroraTransition(prev, m.current.Aurora, m.now())
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Report     *SkyReport
	LastUpdate time.Time
	LastError  error
	KpHistory  []sources.KpSample
	Events     []Event
}

// CurrentKp returns the latest Kp sample.
func (s Snapshot) CurrentKp() (sources.KpSample, bool) {
	return sources.KpSeries(s.KpHistory).Current()
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var report *SkyReport
	if m.current != nil {
		r := m.current.clone()
		report = &r
	}

	kp := make([]sources.KpSample, len(m.kpHistory))
	copy(kp, m.kpHistory)

	return Snapshot{
		Report:     report,
		LastUpdate: m.lastUpdate,
		LastError:  m.lastError,
		KpHistory:  kp,
		Events:     m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// HasData returns true once a sky report has been installed.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}
