package sources

import (
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// WGS84 ellipsoid used for the geodetic sub-satellite point.
const (
	wgs84A = 6378.137
	wgs84F = 1 / 298.257223563
)

// Propagator computes ISS positions from an element set with SGP4.
type Propagator struct {
	tle TLE
	sat satellite.Satellite
}

// NewPropagator initializes SGP4 for the element set.
func NewPropagator(tle TLE) (*Propagator, error) {
	if err := validateTLELines(tle.Line1, tle.Line2); err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", tle.NORADID, err)
	}

	sat := satellite.TLEToSat(tle.Line1, tle.Line2, satellite.GravityWGS72)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", tle.NORADID, sat.Error, sat.ErrorStr)
	}
	return &Propagator{tle: tle, sat: sat}, nil
}

// TLE returns the element set in use.
func (p *Propagator) TLE() TLE {
	return p.tle
}

// Position propagates to t and returns the sub-satellite point.
func (p *Propagator) Position(t time.Time) (ISSPosition, error) {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	pos, vel := satellite.Propagate(p.sat, year, int(month), day, hour, min, sec)
	if !finite(pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z) {
		return ISSPosition{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: output is NaN/Inf", p.tle.NORADID)
	}

	// Sanity check: position magnitude should be between ~6200km and ~50000km.
	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < 6200.0 || mag > 50000.0 {
		return ISSPosition{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: unreasonable position magnitude %.1f km", p.tle.NORADID, mag)
	}

	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	ecef := satellite.ECIToECEF(pos, satellite.ThetaG_JD(jd))
	lat, lon, alt := geodetic(ecef.X, ecef.Y, ecef.Z)
	speed := math.Sqrt(vel.X*vel.X+vel.Y*vel.Y+vel.Z*vel.Z) * 3600

	return ISSPosition{
		Latitude:    lat,
		Longitude:   lon,
		AltitudeKm:  alt,
		VelocityKmh: speed,
		Timestamp:   time.Date(year, month, day, hour, min, sec, 0, time.UTC),
		Source:      SourceSGP4,
	}, nil
}

// geodetic converts Earth-fixed coordinates in km to WGS84 latitude and
// longitude in degrees and height in km.
func geodetic(x, y, z float64) (latDeg, lonDeg, altKm float64) {
	e2 := wgs84F * (2 - wgs84F)
	p := math.Hypot(x, y)
	lon := math.Atan2(y, x)

	lat := math.Atan2(z, p*(1-e2))
	var n float64
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n = wgs84A / math.Sqrt(1-e2*sinLat*sinLat)
		lat = math.Atan2(z+e2*n*sinLat, p)
	}

	sinLat := math.Sin(lat)
	n = wgs84A / math.Sqrt(1-e2*sinLat*sinLat)
	if math.Abs(math.Cos(lat)) > 1e-9 {
		altKm = p/math.Cos(lat) - n
	} else {
		altKm = math.Abs(z) - n*(1-e2)
	}

	return lat * 180 / math.Pi, lon * 180 / math.Pi, altKm
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
