// Package sky computes what is above the observer's horizon: body positions,
// the Moon's phase and rise/set, and aurora likelihood.
package sky

import (
	"sort"
	"time"

	"github.com/litescript/ls-spacelight/internal/astro"
	"github.com/litescript/ls-spacelight/internal/ephem"
)

// BodyPosition is where a body sits on the sky at one instant.
type BodyPosition struct {
	Body           ephem.Body `json:"body"`
	AltitudeDeg    float64    `json:"altitude_deg"`
	AzimuthDeg     float64    `json:"azimuth_deg"`
	Magnitude      float64    `json:"magnitude"`
	MagnitudeKnown bool       `json:"magnitude_known"`
	Visible        bool       `json:"visible"`
	RAdeg          float64    `json:"ra_deg"`
	DecDeg         float64    `json:"dec_deg"`
	Topocentric    bool       `json:"topocentric"`
}

// Compute places each body on the sky for obs at instant t. The result has
// one entry per input body, in input order.
//
// Ephemeris position errors abort the batch and are returned unchanged. A
// body without an illumination model gets MagnitudeKnown = false instead.
// A geocentric observer has no horizon: RA/Dec and magnitude are filled,
// altitude and azimuth are zero and nothing is visible.
func Compute(eph ephem.Adapter, bodies []ephem.Body, t time.Time, obs astro.Observer) ([]BodyPosition, error) {
	t = t.UTC()
	out := make([]BodyPosition, 0, len(bodies))

	for _, body := range bodies {
		eq, err := eph.EquatorialPosition(body, t, obs)
		if err != nil {
			return nil, err
		}

		pos := BodyPosition{
			Body:        body,
			RAdeg:       eq.RAdeg,
			DecDeg:      eq.DecDeg,
			Topocentric: !obs.Geocentric,
		}

		if !obs.Geocentric {
			alt, az := eph.HorizontalPosition(t, obs, eq.RAdeg, eq.DecDeg)
			pos.AltitudeDeg = alt
			pos.AzimuthDeg = astro.NormalizeDegrees(az)
			pos.Visible = alt > astro.MinElevation
		}

		if illum, err := eph.Illumination(body, t); err == nil {
			pos.Magnitude = illum.Magnitude
			pos.MagnitudeKnown = true
		}

		out = append(out, pos)
	}

	return out, nil
}

// SortForDisplay returns a copy of positions with visible bodies first,
// highest altitude first, followed by the rest in catalog order.
func SortForDisplay(positions []BodyPosition) []BodyPosition {
	sorted := make([]BodyPosition, len(positions))
	copy(sorted, positions)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Visible != b.Visible {
			return a.Visible
		}
		if a.Visible {
			return a.AltitudeDeg > b.AltitudeDeg
		}
		return a.Body < b.Body
	})
	return sorted
}

// Partition splits positions into visible and below-horizon lists,
// preserving order within each.
func Partition(positions []BodyPosition) (visible, below []BodyPosition) {
	for _, p := range positions {
		if p.Visible {
			visible = append(visible, p)
		} else {
			below = append(below, p)
		}
	}
	return visible, below
}

// Find returns the position for body, if present.
func Find(positions []BodyPosition, body ephem.Body) (BodyPosition, bool) {
	for _, p := range positions {
		if p.Body == body {
			return p, true
		}
	}
	return BodyPosition{}, false
}
