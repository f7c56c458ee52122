// Package astro provides astronomical coordinate transformations and sky math.
package astro

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/unit"
)

// SkyCoord represents celestial coordinates with both equatorial (RA/Dec)
// and horizontal (Az/El) components.
type SkyCoord struct {
	// Equatorial coordinates (equinox of date)
	RAdeg  float64 // Right Ascension in degrees (0-360)
	DecDeg float64 // Declination in degrees (-90 to +90)

	// Horizontal coordinates (observer-relative)
	AzDeg float64 // Azimuth in degrees (0=N, 90=E, 180=S, 270=W)
	ElDeg float64 // Elevation/Altitude in degrees (0=horizon, 90=zenith)

	// Geocentric distance in AU (0 if unknown)
	DistAU float64
}

// Observer represents a ground-based observer location at sea level.
//
// The zero value is a real location (0°N 0°E). Use GeocentricObserver for
// the "no location" sentinel.
type Observer struct {
	LatDeg     float64 // Latitude in degrees (north positive)
	LonDeg     float64 // Longitude in degrees (east positive)
	Name       string  // Optional name for the site
	Geocentric bool    // No surface location; horizon-relative values are undefined
}

// GeocentricObserver returns the sentinel observer used when no location is known.
func GeocentricObserver() Observer {
	return Observer{Name: "geocentric", Geocentric: true}
}

// NewObserver validates a latitude/longitude pair and returns an Observer.
// Longitudes outside [-180, 180] are wrapped; latitudes outside [-90, 90]
// are rejected.
func NewObserver(latDeg, lonDeg float64, name string) (Observer, error) {
	if math.IsNaN(latDeg) || math.IsNaN(lonDeg) {
		return Observer{}, fmt.Errorf("observer coordinates must be numbers")
	}
	if latDeg < -90 || latDeg > 90 {
		return Observer{}, fmt.Errorf("latitude %.4f out of range [-90, 90]", latDeg)
	}
	return Observer{
		LatDeg: latDeg,
		LonDeg: wrapLongitude(lonDeg),
		Name:   name,
	}, nil
}

// String formats the observer for display.
func (o Observer) String() string {
	if o.Geocentric {
		return "geocentric"
	}
	ns, ew := "N", "E"
	lat, lon := o.LatDeg, o.LonDeg
	if lat < 0 {
		ns, lat = "S", -lat
	}
	if lon < 0 {
		ew, lon = "W", -lon
	}
	if o.Name != "" {
		return fmt.Sprintf("%s (%.2f°%s %.2f°%s)", o.Name, lat, ns, lon, ew)
	}
	return fmt.Sprintf("%.2f°%s %.2f°%s", lat, ns, lon, ew)
}

// EquatorialToHorizontal converts equatorial coordinates (RA/Dec) to horizontal
// coordinates (Az/El) for a given observer and time.
//
// The function preserves the input RA/Dec values and populates Az/El.
// Uses standard astronomical conventions:
//   - Azimuth: 0° = North, 90° = East, 180° = South, 270° = West
//   - Elevation: 0° = horizon, 90° = zenith
func EquatorialToHorizontal(eq SkyCoord, obs Observer, t time.Time) SkyCoord {
	// meeus measures longitude westward and azimuth from the south.
	A, h := coord.EqToHz(
		unit.RAFromDeg(eq.RAdeg),
		unit.AngleFromDeg(eq.DecDeg),
		unit.AngleFromDeg(obs.LatDeg),
		unit.AngleFromDeg(-obs.LonDeg),
		sidereal.Mean(JulianDate(t)),
	)
	az := normalizeAngle360(A.Deg() + 180)
	if az >= 360 {
		az = 0
	}

	return SkyCoord{
		RAdeg:  eq.RAdeg,
		DecDeg: eq.DecDeg,
		AzDeg:  az,
		ElDeg:  h.Deg(),
		DistAU: eq.DistAU,
	}
}

// LocalSiderealTime calculates the Local Sidereal Time in degrees
// for a given UTC time and observer longitude.
func LocalSiderealTime(t time.Time, lonDeg float64) float64 {
	return normalizeAngle360(GreenwichMeanSiderealTime(t) + lonDeg)
}

// GreenwichMeanSiderealTime returns GMST in degrees for a UTC time
// (IAU 1982 coefficients).
func GreenwichMeanSiderealTime(t time.Time) float64 {
	return normalizeAngle360(sidereal.Mean(JulianDate(t)).Angle().Deg())
}

// JulianDate returns the Julian Date for t.
func JulianDate(t time.Time) float64 {
	return julian.TimeToJD(t)
}

// J2000Centuries returns Julian centuries since J2000.0 for t.
func J2000Centuries(t time.Time) float64 {
	return (JulianDate(t) - 2451545.0) / 36525.0
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// radToDeg converts radians to degrees.
func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wrapLongitude(lon float64) float64 {
	if lon >= -180 && lon < 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
