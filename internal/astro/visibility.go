package astro

import (
	"errors"
	"math"
	"time"
)

// MinElevation is the threshold for considering an object "visible".
// Refraction is ignored; the geometric horizon is used.
const MinElevation = 0.0

// Crossing direction for horizon searches.
type Direction int

const (
	Rising  Direction = iota // below → above the horizon
	Setting                  // above → below the horizon
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Rising {
		return "rise"
	}
	return "set"
}

// AltitudeFunc returns an object's altitude in degrees at t.
type AltitudeFunc func(t time.Time) (float64, error)

// DefaultSearchStep is the coarse sampling step for horizon searches.
// It is short enough that the Moon cannot rise and set between samples.
const DefaultSearchStep = 10 * time.Minute

// ErrInvalidWindow is returned when a search window is empty or negative.
var ErrInvalidWindow = errors.New("search window must be positive")

// FindCrossing scans forward from start until end for the first horizon
// crossing in the given direction. The crossing time is refined by bisection
// to within a second. found is false if no crossing occurs in the window.
func FindCrossing(alt AltitudeFunc, dir Direction, start, end time.Time, step time.Duration) (time.Time, bool, error) {
	if !end.After(start) || step <= 0 {
		return time.Time{}, false, ErrInvalidWindow
	}

	prevT := start
	prevEl, err := alt(prevT)
	if err != nil {
		return time.Time{}, false, err
	}

	for !prevT.After(end) {
		currT := prevT.Add(step)
		if currT.After(end) {
			currT = end
		}
		currEl, err := alt(currT)
		if err != nil {
			return time.Time{}, false, err
		}

		if isCrossing(dir, prevEl, currEl) {
			t, err := refineCrossing(alt, dir, prevT, currT, prevEl, currEl)
			if err != nil {
				return time.Time{}, false, err
			}
			return t, true, nil
		}

		if !currT.Before(end) {
			break
		}
		prevT, prevEl = currT, currEl
	}

	return time.Time{}, false, nil
}

func isCrossing(dir Direction, prevEl, currEl float64) bool {
	if dir == Rising {
		return prevEl <= MinElevation && currEl > MinElevation
	}
	return prevEl > MinElevation && currEl <= MinElevation
}

// refineCrossing narrows a bracketed crossing by bisection, then finishes
// with a linear interpolation between the final samples.
func refineCrossing(alt AltitudeFunc, dir Direction, t1, t2 time.Time, el1, el2 float64) (time.Time, error) {
	for t2.Sub(t1) > time.Second {
		mid := t1.Add(t2.Sub(t1) / 2)
		elMid, err := alt(mid)
		if err != nil {
			return time.Time{}, err
		}
		if isCrossing(dir, el1, elMid) {
			t2, el2 = mid, elMid
		} else {
			t1, el1 = mid, elMid
		}
	}
	return interpolateCrossing(t1, t2, el1, el2, MinElevation), nil
}

// interpolateCrossing finds the time when elevation crosses a threshold.
func interpolateCrossing(t1, t2 time.Time, el1, el2, threshold float64) time.Time {
	if math.Abs(el2-el1) < 0.0001 {
		return t1
	}

	fraction := (threshold - el1) / (el2 - el1)
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}

	dt := t2.Sub(t1)
	return t1.Add(time.Duration(float64(dt) * fraction))
}

// CurrentElevation computes the current elevation of an object at a given time.
func CurrentElevation(obs Observer, raDeg, decDeg float64, t time.Time) float64 {
	coord := SkyCoord{RAdeg: raDeg, DecDeg: decDeg}
	return EquatorialToHorizontal(coord, obs, t).ElDeg
}

// ElevationTier categorizes elevation for UI display.
type ElevationTier int

const (
	ElevationNone   ElevationTier = iota // Below horizon
	ElevationLow                         // 0-15 degrees
	ElevationMedium                      // 15-45 degrees
	ElevationHigh                        // 45+ degrees
)

// GetElevationTier returns the tier for a given elevation.
func GetElevationTier(elDeg float64) ElevationTier {
	switch {
	case elDeg <= 0:
		return ElevationNone
	case elDeg < 15:
		return ElevationLow
	case elDeg < 45:
		return ElevationMedium
	default:
		return ElevationHigh
	}
}

// CompassPoint returns the 16-wind compass abbreviation for an azimuth.
func CompassPoint(azDeg float64) string {
	points := [...]string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
		"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW"}
	idx := int(math.Floor(NormalizeDegrees(azDeg)/22.5+0.5)) % len(points)
	return points[idx]
}
