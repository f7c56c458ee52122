package astro

import (
	"math"
	"time"
)

// SunMagnitude is the apparent visual magnitude of the Sun.
const SunMagnitude = -26.74

// solarElements holds the intermediate quantities of the low-precision
// solar theory shared by SunPosition and SunDistanceAU.
type solarElements struct {
	lonApp float64 // apparent ecliptic longitude, degrees
	eps    float64 // true obliquity, degrees
	radius float64 // Earth-Sun distance, AU
}

func solarTheory(t time.Time) solarElements {
	T := J2000Centuries(t)

	// Mean longitude and mean anomaly (degrees)
	L0 := normalizeAngle360(280.46646 + 36000.76983*T + 0.0003032*T*T)
	M := normalizeAngle360(357.52911 + 35999.05029*T - 0.0001537*T*T)
	Mrad := degToRad(M)

	e := 0.016708634 - 0.000042037*T - 0.0000001267*T*T

	// Equation of center (degrees)
	C := (1.914602 - 0.004817*T - 0.000014*T*T) * math.Sin(Mrad)
	C += (0.019993 - 0.000101*T) * math.Sin(2*Mrad)
	C += 0.000289 * math.Sin(3*Mrad)

	trueLon := L0 + C
	v := degToRad(M + C)

	omega := 125.04 - 1934.136*T
	lonApp := trueLon - 0.00569 - 0.00478*math.Sin(degToRad(omega))

	eps0 := 23.439291 - 0.0130042*T - 0.00000016*T*T + 0.000000504*T*T*T
	eps := eps0 + 0.00256*math.Cos(degToRad(omega))

	return solarElements{
		lonApp: normalizeAngle360(lonApp),
		eps:    eps,
		radius: 1.000001018 * (1 - e*e) / (1 + e*math.Cos(v)),
	}
}

// SunPosition calculates the apparent equatorial coordinates of the Sun.
// Uses a simplified solar ephemeris based on the Astronomical Almanac.
// Accuracy: ~0.01 degrees, far below what horizon visibility needs.
func SunPosition(t time.Time) (raDeg, decDeg float64) {
	s := solarTheory(t)
	lon := degToRad(s.lonApp)
	eps := degToRad(s.eps)

	raDeg = normalizeAngle360(radToDeg(math.Atan2(math.Cos(eps)*math.Sin(lon), math.Cos(lon))))
	decDeg = radToDeg(math.Asin(math.Sin(eps) * math.Sin(lon)))
	return raDeg, decDeg
}

// SunDistanceAU returns the Earth-Sun distance in AU.
func SunDistanceAU(t time.Time) float64 {
	return solarTheory(t).radius
}

// SunEclipticLongitude returns the Sun's apparent ecliptic longitude in degrees.
func SunEclipticLongitude(t time.Time) float64 {
	return solarTheory(t).lonApp
}

// AngularSeparation calculates the angular separation between two points on the celestial sphere.
// All coordinates in degrees. Returns separation in degrees.
func AngularSeparation(ra1, dec1, ra2, dec2 float64) float64 {
	ra1Rad := degToRad(ra1)
	dec1Rad := degToRad(dec1)
	ra2Rad := degToRad(ra2)
	dec2Rad := degToRad(dec2)

	// Haversine formula
	dRA := ra2Rad - ra1Rad
	dDec := dec2Rad - dec1Rad

	a := math.Sin(dDec/2)*math.Sin(dDec/2) +
		math.Cos(dec1Rad)*math.Cos(dec2Rad)*math.Sin(dRA/2)*math.Sin(dRA/2)
	if a > 1 {
		a = 1
	}

	return radToDeg(2 * math.Asin(math.Sqrt(a)))
}

// SkyCondition categorizes sky brightness by the Sun's altitude.
type SkyCondition int

const (
	SkyDaylight             SkyCondition = iota // Sun above horizon
	SkyCivilTwilight                            // 0 to -6 degrees
	SkyNauticalTwilight                         // -6 to -12 degrees
	SkyAstronomicalTwilight                     // -12 to -18 degrees
	SkyNight                                    // below -18 degrees
)

// String returns a display label for the condition.
func (c SkyCondition) String() string {
	switch c {
	case SkyDaylight:
		return "Daylight"
	case SkyCivilTwilight:
		return "Civil twilight"
	case SkyNauticalTwilight:
		return "Nautical twilight"
	case SkyAstronomicalTwilight:
		return "Astronomical twilight"
	case SkyNight:
		return "Dark sky"
	default:
		return "Unknown"
	}
}

// GoodForStargazing reports whether the sky is dark enough for faint objects.
func (c SkyCondition) GoodForStargazing() bool {
	return c == SkyNight || c == SkyAstronomicalTwilight
}

// GetSkyCondition returns the condition for a given solar altitude.
func GetSkyCondition(sunAltDeg float64) SkyCondition {
	switch {
	case sunAltDeg > 0:
		return SkyDaylight
	case sunAltDeg > -6:
		return SkyCivilTwilight
	case sunAltDeg > -12:
		return SkyNauticalTwilight
	case sunAltDeg > -18:
		return SkyAstronomicalTwilight
	default:
		return SkyNight
	}
}

// normalizeAngle360 normalizes an angle to 0-360 degrees.
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// NormalizeDegrees normalizes an angle to [0, 360).
func NormalizeDegrees(a float64) float64 {
	a = normalizeAngle360(a)
	if a >= 360 {
		return 0
	}
	return a
}

// AngularDifference returns a-b wrapped to (-180, 180].
func AngularDifference(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// MarshalText implements encoding.TextMarshaler.
func (c SkyCondition) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
