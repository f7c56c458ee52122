package sky

import (
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-spacelight/internal/astro"
	"github.com/litescript/ls-spacelight/internal/ephem"
)

// RiseSetWindowDays bounds the forward search for the next moonrise and moonset.
const RiseSetWindowDays = 30

// MoonPhase is one of the eight named lunar phases.
type MoonPhase int

const (
	NewMoon MoonPhase = iota
	WaxingCrescent
	FirstQuarter
	WaxingGibbous
	FullMoon
	WaningGibbous
	LastQuarter
	WaningCrescent
)

var phaseNames = [...]string{
	"New Moon",
	"Waxing Crescent",
	"First Quarter",
	"Waxing Gibbous",
	"Full Moon",
	"Waning Gibbous",
	"Last Quarter",
	"Waning Crescent",
}

var phaseSymbols = [...]string{"🌑", "🌒", "🌓", "🌔", "🌕", "🌖", "🌗", "🌘"}

// String returns the phase name.
func (p MoonPhase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "Unknown"
	}
	return phaseNames[p]
}

// Symbol returns the moon-phase emoji.
func (p MoonPhase) Symbol() string {
	if p < 0 || int(p) >= len(phaseSymbols) {
		return "?"
	}
	return phaseSymbols[p]
}

// MarshalText encodes the phase by name.
func (p MoonPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// PhaseRange is the half-open elongation interval [Start, End) of a phase.
// A range with Start > End wraps through 0°.
type PhaseRange struct {
	Phase MoonPhase
	Start float64
	End   float64
}

// Contains reports whether angle (degrees, already in [0, 360)) falls in the range.
func (r PhaseRange) Contains(angle float64) bool {
	if r.Start <= r.End {
		return angle >= r.Start && angle < r.End
	}
	return angle >= r.Start || angle < r.End
}

// PhaseBoundaries partitions [0°, 360°) into the eight named phases.
// The principal phases are narrow windows around 0°, 90°, 180° and 270°.
var PhaseBoundaries = []PhaseRange{
	{Phase: NewMoon, Start: 346.9, End: 6.1},
	{Phase: WaxingCrescent, Start: 6.1, End: 83.1},
	{Phase: FirstQuarter, Start: 83.1, End: 96.9},
	{Phase: WaxingGibbous, Start: 96.9, End: 173.1},
	{Phase: FullMoon, Start: 173.1, End: 186.9},
	{Phase: WaningGibbous, Start: 186.9, End: 263.1},
	{Phase: LastQuarter, Start: 263.1, End: 276.9},
	{Phase: WaningCrescent, Start: 276.9, End: 346.9},
}

// PhaseForAngle maps a Sun-Moon elongation in degrees to its named phase.
func PhaseForAngle(angle float64) MoonPhase {
	a := astro.NormalizeDegrees(angle)
	for _, r := range PhaseBoundaries {
		if r.Contains(a) {
			return r.Phase
		}
	}
	// Unreachable for finite input; the table covers the circle.
	return NewMoon
}

// MoonState is the Moon's phase, illumination and next horizon crossings.
type MoonState struct {
	Phase               MoonPhase  `json:"phase"`
	PhaseAngleDeg       float64    `json:"phase_angle_deg"`
	IlluminationPercent int        `json:"illumination_percent"`
	Rise                *time.Time `json:"rise,omitempty"`
	Set                 *time.Time `json:"set,omitempty"`
	Geocentric          bool       `json:"geocentric"`
}

// Waxing reports whether the lit fraction is growing.
func (s MoonState) Waxing() bool {
	return s.PhaseAngleDeg > 0 && s.PhaseAngleDeg < 180
}

// ComputeMoon returns the Moon's state at t. With a located observer the
// next rise and set are searched up to RiseSetWindowDays ahead and left nil
// when no crossing occurs. A geocentric observer never gets rise/set.
func ComputeMoon(eph ephem.Adapter, t time.Time, obs astro.Observer) (MoonState, error) {
	t = t.UTC()
	angle := astro.NormalizeDegrees(eph.MoonPhaseAngle(t))

	illum, err := eph.Illumination(ephem.Moon, t)
	if err != nil {
		return MoonState{}, fmt.Errorf("moon illumination: %w", err)
	}

	state := MoonState{
		Phase:               PhaseForAngle(angle),
		PhaseAngleDeg:       angle,
		IlluminationPercent: illuminationPercent(illum.PhaseFraction),
		Geocentric:          obs.Geocentric,
	}
	if obs.Geocentric {
		return state, nil
	}

	if state.Rise, err = nextCrossing(eph, obs, astro.Rising, t); err != nil {
		return MoonState{}, err
	}
	if state.Set, err = nextCrossing(eph, obs, astro.Setting, t); err != nil {
		return MoonState{}, err
	}
	return state, nil
}

func nextCrossing(eph ephem.Adapter, obs astro.Observer, dir astro.Direction, t time.Time) (*time.Time, error) {
	at, found, err := eph.SearchRiseSet(ephem.Moon, obs, dir, t, RiseSetWindowDays)
	if err != nil {
		return nil, fmt.Errorf("moon%s search: %w", dir, err)
	}
	if !found {
		return nil, nil
	}
	return &at, nil
}

func illuminationPercent(fraction float64) int {
	pct := int(math.Round(fraction * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
