package astro

import (
	"fmt"
	"math"
	"time"
)

// Planet identifies a major planet, or the Earth-Moon barycenter.
type Planet int

const (
	Mercury Planet = iota
	Venus
	EarthMoonBary
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
)

// String returns the planet name.
func (p Planet) String() string {
	switch p {
	case Mercury:
		return "Mercury"
	case Venus:
		return "Venus"
	case EarthMoonBary:
		return "Earth"
	case Mars:
		return "Mars"
	case Jupiter:
		return "Jupiter"
	case Saturn:
		return "Saturn"
	case Uranus:
		return "Uranus"
	case Neptune:
		return "Neptune"
	default:
		return fmt.Sprintf("Planet(%d)", int(p))
	}
}

// keplerElements holds J2000 mean elements and their rates per Julian century.
// Angles in degrees, axis in AU.
type keplerElements struct {
	a, aDot         float64 // semi-major axis
	e, eDot         float64 // eccentricity
	inc, incDot     float64 // inclination
	meanLon, lDot   float64 // mean longitude
	periLon, pDot   float64 // longitude of perihelion
	node, nodeDot   float64 // longitude of ascending node
	magV0           float64 // V(1,0) absolute magnitude
	magPhaseTerms   [3]float64
	hasPhaseProfile bool
}

// Approximate Keplerian elements valid 1800-2050 (Standish, JPL).
// Magnitude coefficients from the Astronomical Almanac as given by Meeus ch. 41.
var planetElements = map[Planet]keplerElements{
	Mercury: {
		a: 0.38709927, aDot: 0.00000037,
		e: 0.20563593, eDot: 0.00001906,
		inc: 7.00497902, incDot: -0.00594749,
		meanLon: 252.25032350, lDot: 149472.67411175,
		periLon: 77.45779628, pDot: 0.16047689,
		node: 48.33076593, nodeDot: -0.12534081,
		magV0: -0.42, magPhaseTerms: [3]float64{0.0380, -0.000273, 0.000002}, hasPhaseProfile: true,
	},
	Venus: {
		a: 0.72333566, aDot: 0.00000390,
		e: 0.00677672, eDot: -0.00004107,
		inc: 3.39467605, incDot: -0.00078890,
		meanLon: 181.97909950, lDot: 58517.81538729,
		periLon: 131.60246718, pDot: 0.00268329,
		node: 76.67984255, nodeDot: -0.27769418,
		magV0: -4.40, magPhaseTerms: [3]float64{0.0009, 0.000239, -0.00000065}, hasPhaseProfile: true,
	},
	EarthMoonBary: {
		a: 1.00000261, aDot: 0.00000562,
		e: 0.01671123, eDot: -0.00004392,
		inc: -0.00001531, incDot: -0.01294668,
		meanLon: 100.46457166, lDot: 35999.37244981,
		periLon: 102.93768193, pDot: 0.32327364,
		node: 0, nodeDot: 0,
	},
	Mars: {
		a: 1.52371034, aDot: 0.00001847,
		e: 0.09339410, eDot: 0.00007882,
		inc: 1.84969142, incDot: -0.00813131,
		meanLon: -4.55343205, lDot: 19140.30268499,
		periLon: -23.94362959, pDot: 0.44441088,
		node: 49.55953891, nodeDot: -0.29257343,
		magV0: -1.52, magPhaseTerms: [3]float64{0.016, 0, 0}, hasPhaseProfile: true,
	},
	Jupiter: {
		a: 5.20288700, aDot: -0.00011607,
		e: 0.04838624, eDot: -0.00013253,
		inc: 1.30439695, incDot: -0.00183714,
		meanLon: 34.39644051, lDot: 3034.74612775,
		periLon: 14.72847983, pDot: 0.21252668,
		node: 100.47390909, nodeDot: 0.20469106,
		magV0: -9.40, magPhaseTerms: [3]float64{0.005, 0, 0}, hasPhaseProfile: true,
	},
	Saturn: {
		a: 9.53667594, aDot: -0.00125060,
		e: 0.05386179, eDot: -0.00050991,
		inc: 2.48599187, incDot: 0.00193609,
		meanLon: 49.95424423, lDot: 1222.49362201,
		periLon: 92.59887831, pDot: -0.41897216,
		node: 113.66242448, nodeDot: -0.28867794,
		// Ring tilt term omitted; adds up to ~1 mag of brightening.
		magV0: -8.88, hasPhaseProfile: true,
	},
	Uranus: {
		a: 19.18916464, aDot: -0.00196176,
		e: 0.04725744, eDot: -0.00004397,
		inc: 0.77263783, incDot: -0.00242939,
		meanLon: 313.23810451, lDot: 428.48202785,
		periLon: 170.95427630, pDot: 0.40805281,
		node: 74.01692503, nodeDot: 0.04240589,
		magV0: -7.19, hasPhaseProfile: true,
	},
	Neptune: {
		a: 30.06992276, aDot: 0.00026291,
		e: 0.00859048, eDot: 0.00005105,
		inc: 1.77004347, incDot: 0.00035372,
		meanLon: -55.12002969, lDot: 218.45945325,
		periLon: 44.96476227, pDot: -0.32241464,
		node: 131.78422574, nodeDot: -0.00508664,
		magV0: -6.87, hasPhaseProfile: true,
	},
}

// HeliocentricPosition returns the J2000 heliocentric ecliptic position of a planet in AU.
func HeliocentricPosition(p Planet, t time.Time) (Vec3, error) {
	el, ok := planetElements[p]
	if !ok {
		return Vec3{}, fmt.Errorf("no orbital elements for %v", p)
	}

	T := J2000Centuries(t)

	a := el.a + el.aDot*T
	e := el.e + el.eDot*T
	inc := degToRad(el.inc + el.incDot*T)
	L := el.meanLon + el.lDot*T
	peri := el.periLon + el.pDot*T
	node := el.node + el.nodeDot*T

	argPeri := degToRad(peri - node)
	M := math.Mod(L-peri, 360)
	if M > 180 {
		M -= 360
	} else if M < -180 {
		M += 360
	}

	E := solveKepler(degToRad(M), e)

	// Position in the orbital plane
	xp := a * (math.Cos(E) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(E)

	cw, sw := math.Cos(argPeri), math.Sin(argPeri)
	cn, sn := math.Cos(degToRad(node)), math.Sin(degToRad(node))
	ci, si := math.Cos(inc), math.Sin(inc)

	return Vec3{
		X: (cw*cn-sw*sn*ci)*xp + (-sw*cn-cw*sn*ci)*yp,
		Y: (cw*sn+sw*cn*ci)*xp + (-sw*sn+cw*cn*ci)*yp,
		Z: (sw*si)*xp + (cw*si)*yp,
	}, nil
}

// solveKepler solves E - e·sin(E) = M for the eccentric anomaly (radians).
func solveKepler(M, e float64) float64 {
	E := M + e*math.Sin(M)
	for i := 0; i < 30; i++ {
		dE := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < 1e-12 {
			break
		}
	}
	return E
}

// PlanetGeometry is the Earth-relative geometry of a planet at an instant.
type PlanetGeometry struct {
	RAdeg      float64 // Apparent RA, equinox of date (no aberration/nutation)
	DecDeg     float64
	DistAU     float64 // Earth-planet distance (Δ)
	SunDistAU  float64 // Sun-planet distance (r)
	PhaseAngle float64 // Sun-planet-Earth angle in degrees
}

// IlluminatedFraction returns the lit fraction of the disk, 0..1.
func (g PlanetGeometry) IlluminatedFraction() float64 {
	return (1 + math.Cos(degToRad(g.PhaseAngle))) / 2
}

// GeocentricPlanet computes geocentric position and phase geometry for a planet.
// Light-time is corrected with a single iteration.
func GeocentricPlanet(p Planet, t time.Time) (PlanetGeometry, error) {
	if p == EarthMoonBary {
		return PlanetGeometry{}, fmt.Errorf("cannot observe %v from itself", p)
	}

	earth, err := HeliocentricPosition(EarthMoonBary, t)
	if err != nil {
		return PlanetGeometry{}, err
	}
	body, err := HeliocentricPosition(p, t)
	if err != nil {
		return PlanetGeometry{}, err
	}

	delta := body.Sub(earth).Norm()
	lightTime := time.Duration(delta * 499.005 * float64(time.Second))
	if body, err = HeliocentricPosition(p, t.Add(-lightTime)); err != nil {
		return PlanetGeometry{}, err
	}

	geo := body.Sub(earth)
	r := body.Norm()
	R := earth.Norm()
	delta = geo.Norm()

	// Rotate ecliptic longitude from J2000 to the equinox of date so the
	// result is consistent with the sidereal time used for the horizon.
	lon := PrecessFromJ2000(EclipticLongitude(geo), J2000Centuries(t))
	lat := degToRad(EclipticLatitude(geo))
	lonRad := degToRad(lon)
	ecl := Vec3{
		X: math.Cos(lat) * math.Cos(lonRad),
		Y: math.Cos(lat) * math.Sin(lonRad),
		Z: math.Sin(lat),
	}
	ra, dec, _ := VecToRADec(EclipticToEquatorial(ecl))

	cosI := clamp((r*r+delta*delta-R*R)/(2*r*delta), -1, 1)

	return PlanetGeometry{
		RAdeg:      ra,
		DecDeg:     dec,
		DistAU:     delta,
		SunDistAU:  r,
		PhaseAngle: radToDeg(math.Acos(cosI)),
	}, nil
}

// PlanetMagnitude returns the apparent visual magnitude of a planet.
func PlanetMagnitude(p Planet, g PlanetGeometry) (float64, error) {
	el, ok := planetElements[p]
	if !ok || !el.hasPhaseProfile {
		return 0, fmt.Errorf("no magnitude model for %v", p)
	}
	if g.DistAU <= 0 || g.SunDistAU <= 0 {
		return 0, fmt.Errorf("degenerate geometry for %v", p)
	}

	i := g.PhaseAngle
	c := el.magPhaseTerms
	return el.magV0 + 5*math.Log10(g.SunDistAU*g.DistAU) + c[0]*i + c[1]*i*i + c[2]*i*i*i, nil
}
