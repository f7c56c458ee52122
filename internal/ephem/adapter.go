// Package ephem places solar-system bodies on the sky for an observer.
package ephem

import (
	"errors"
	"time"

	"github.com/litescript/ls-spacelight/internal/astro"
)

var (
	// ErrUnknownBody is returned for a Body outside the catalog.
	ErrUnknownBody = errors.New("unknown body")

	// ErrNoIllumination is returned when a body has no phase or magnitude model.
	ErrNoIllumination = errors.New("illumination undefined")
)

// Illumination is the lit fraction and apparent brightness of a body.
type Illumination struct {
	PhaseFraction float64 // 0..1
	Magnitude     float64 // Apparent visual magnitude
}

// Adapter is the ephemeris contract the sky calculators consume.
type Adapter interface {
	// EquatorialPosition returns RA/Dec (equinox of date) and distance.
	// For a located observer the position is topocentric.
	EquatorialPosition(body Body, t time.Time, obs astro.Observer) (astro.SkyCoord, error)

	// HorizontalPosition converts RA/Dec to altitude and azimuth.
	// Both are zero for a geocentric observer.
	HorizontalPosition(t time.Time, obs astro.Observer, raDeg, decDeg float64) (altDeg, azDeg float64)

	// Illumination returns phase fraction and magnitude for a body.
	Illumination(body Body, t time.Time) (Illumination, error)

	// MoonPhaseAngle returns the Sun-Moon elongation in [0, 360),
	// 0 at new moon and 180 at full.
	MoonPhaseAngle(t time.Time) float64

	// SearchRiseSet looks forward from start for the next horizon crossing
	// in the given direction. found is false if none occurs in the window.
	SearchRiseSet(body Body, obs astro.Observer, dir astro.Direction, start time.Time, windowDays int) (time.Time, bool, error)
}
