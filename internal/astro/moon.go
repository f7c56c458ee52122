package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

// MoonGeometry is the geocentric position and phase geometry of the Moon.
type MoonGeometry struct {
	RAdeg      float64 // Geocentric RA, equinox of date
	DecDeg     float64
	DistKm     float64
	EclLonDeg  float64 // Geocentric ecliptic longitude
	EclLatDeg  float64
	Elongation float64 // Sun-Moon longitude difference, 0 = new, 180 = full
	PhaseAngle float64 // Sun-Moon-Earth angle in degrees, 0 = full
}

// MoonPosition computes the Moon's geocentric geometry using the ELP-2000
// truncation from Meeus ch. 47.
func MoonPosition(t time.Time) MoonGeometry {
	jde := julian.TimeToJD(t.UTC())
	lon, lat, distKm := moonposition.Position(jde)

	eps := nutation.MeanObliquity(jde)
	ra, dec := coord.EclToEq(lon, lat, eps.Sin(), eps.Cos())

	T := base.J2000Century(jde)
	sunLon := solar.ApparentLongitude(T)
	sunDistKm := solar.Radius(T) * AU

	elong := NormalizeDegrees(lon.Deg() - sunLon.Deg())

	// Geocentric elongation ψ and phase angle i (Meeus 48.2, 48.3)
	cosPsi := lat.Cos() * math.Cos(lon.Rad()-sunLon.Rad())
	psi := math.Acos(clamp(cosPsi, -1, 1))
	i := math.Atan2(sunDistKm*math.Sin(psi), distKm-sunDistKm*math.Cos(psi))

	return MoonGeometry{
		RAdeg:      NormalizeDegrees(unit.Angle(ra).Deg()),
		DecDeg:     dec.Deg(),
		DistKm:     distKm,
		EclLonDeg:  NormalizeDegrees(lon.Deg()),
		EclLatDeg:  lat.Deg(),
		Elongation: elong,
		PhaseAngle: radToDeg(i),
	}
}

// IlluminatedFraction returns the lit fraction of the lunar disk, 0..1.
func (g MoonGeometry) IlluminatedFraction() float64 {
	return (1 + math.Cos(degToRad(g.PhaseAngle))) / 2
}

// Magnitude returns the approximate visual magnitude of the Moon
// (Allen's formula; good to a few tenths away from new moon).
func (g MoonGeometry) Magnitude() float64 {
	i := g.PhaseAngle
	return -12.73 + 0.026*math.Abs(i) + 4e-9*math.Pow(i, 4)
}

// Topocentric applies diurnal parallax to geocentric RA/Dec for an observer
// at sea level (Meeus ch. 40, spherical Earth). Parallax matters for the Moon
// only, where it reaches about one degree.
func Topocentric(raDeg, decDeg, distKm float64, obs Observer, t time.Time) (float64, float64) {
	if obs.Geocentric || distKm <= 0 {
		return raDeg, decDeg
	}

	sinPi := EarthRadiusKm / distKm
	lat := degToRad(obs.LatDeg)
	dec := degToRad(decDeg)
	H := degToRad(LocalSiderealTime(t, obs.LonDeg) - raDeg)

	rhoCos := math.Cos(lat)
	rhoSin := math.Sin(lat)

	dRA := math.Atan2(-rhoCos*sinPi*math.Sin(H), math.Cos(dec)-rhoCos*sinPi*math.Cos(H))
	topoDec := math.Atan2((math.Sin(dec)-rhoSin*sinPi)*math.Cos(dRA), math.Cos(dec)-rhoCos*sinPi*math.Cos(H))

	return NormalizeDegrees(raDeg + radToDeg(dRA)), radToDeg(topoDec)
}
