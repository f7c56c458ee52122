package ephem

import (
	"fmt"
	"sync"
	"time"

	"github.com/litescript/ls-spacelight/internal/astro"
)

// Engine computes ephemerides locally from analytic theories: a low-precision
// solar theory, Keplerian planet elements and the Meeus lunar series.
// It is safe for concurrent use.
type Engine struct {
	step time.Duration

	// Geocentric results for the most recent instant. A sky pass asks for
	// position and illumination of the same body at the same instant.
	mu      sync.Mutex
	cacheAt time.Time
	cache   map[Body]geometry
}

// geometry is the observer-independent state of a body at an instant.
type geometry struct {
	ra, dec  float64
	distAU   float64
	distKm   float64
	illum    Illumination
	illumErr error
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSearchStep sets the coarse sampling step for rise/set searches.
func WithSearchStep(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.step = d
		}
	}
}

// NewEngine creates a new ephemeris engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		step:  astro.DefaultSearchStep,
		cache: make(map[Body]geometry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ Adapter = (*Engine)(nil)

// EquatorialPosition implements Adapter.
func (e *Engine) EquatorialPosition(body Body, t time.Time, obs astro.Observer) (astro.SkyCoord, error) {
	g, err := e.geometryAt(body, t.UTC(), true)
	if err != nil {
		return astro.SkyCoord{}, err
	}

	ra, dec := g.ra, g.dec
	if body == Moon {
		ra, dec = astro.Topocentric(ra, dec, g.distKm, obs, t.UTC())
	}
	return astro.SkyCoord{RAdeg: ra, DecDeg: dec, DistAU: g.distAU}, nil
}

// HorizontalPosition implements Adapter.
func (e *Engine) HorizontalPosition(t time.Time, obs astro.Observer, raDeg, decDeg float64) (float64, float64) {
	if obs.Geocentric {
		return 0, 0
	}
	hz := astro.EquatorialToHorizontal(astro.SkyCoord{RAdeg: raDeg, DecDeg: decDeg}, obs, t.UTC())
	return hz.ElDeg, hz.AzDeg
}

// Illumination implements Adapter.
func (e *Engine) Illumination(body Body, t time.Time) (Illumination, error) {
	g, err := e.geometryAt(body, t.UTC(), true)
	if err != nil {
		return Illumination{}, err
	}
	return g.illum, g.illumErr
}

// MoonPhaseAngle implements Adapter.
func (e *Engine) MoonPhaseAngle(t time.Time) float64 {
	return astro.MoonPosition(t.UTC()).Elongation
}

// SearchRiseSet implements Adapter. A geocentric observer has no horizon,
// so the search reports no crossing.
func (e *Engine) SearchRiseSet(body Body, obs astro.Observer, dir astro.Direction, start time.Time, windowDays int) (time.Time, bool, error) {
	if !body.Known() {
		return time.Time{}, false, fmt.Errorf("%w: %d", ErrUnknownBody, int(body))
	}
	if windowDays <= 0 {
		return time.Time{}, false, fmt.Errorf("rise/set window of %d days: %w", windowDays, astro.ErrInvalidWindow)
	}
	if obs.Geocentric {
		return time.Time{}, false, nil
	}

	alt := func(t time.Time) (float64, error) {
		// Search samples bypass the per-instant cache.
		g, err := e.geometryAt(body, t, false)
		if err != nil {
			return 0, err
		}
		ra, dec := g.ra, g.dec
		if body == Moon {
			ra, dec = astro.Topocentric(ra, dec, g.distKm, obs, t)
		}
		el, _ := e.HorizontalPosition(t, obs, ra, dec)
		return el, nil
	}

	start = start.UTC()
	end := start.Add(time.Duration(windowDays) * 24 * time.Hour)
	return astro.FindCrossing(alt, dir, start, end, e.step)
}

// geometryAt returns the geocentric geometry of body at t, optionally
// going through the single-instant cache.
func (e *Engine) geometryAt(body Body, t time.Time, cached bool) (geometry, error) {
	info, ok := GetBodyInfo(body)
	if !ok {
		return geometry{}, fmt.Errorf("%w: %d", ErrUnknownBody, int(body))
	}

	if cached {
		e.mu.Lock()
		if g, hit := e.cache[body]; hit && e.cacheAt.Equal(t) {
			e.mu.Unlock()
			return g, nil
		}
		e.mu.Unlock()
	}

	g, err := computeGeometry(info, t)
	if err != nil {
		return geometry{}, err
	}

	if cached {
		e.mu.Lock()
		if !e.cacheAt.Equal(t) {
			e.cacheAt = t
			e.cache = make(map[Body]geometry, len(Catalog))
		}
		e.cache[body] = g
		e.mu.Unlock()
	}
	return g, nil
}

func computeGeometry(info BodyInfo, t time.Time) (geometry, error) {
	switch {
	case info.Body == Sun:
		ra, dec := astro.SunPosition(t)
		dist := astro.SunDistanceAU(t)
		return geometry{
			ra:     ra,
			dec:    dec,
			distAU: dist,
			distKm: astro.AUToKm(dist),
			illum:  Illumination{PhaseFraction: 1, Magnitude: astro.SunMagnitude},
		}, nil

	case info.Body == Moon:
		m := astro.MoonPosition(t)
		return geometry{
			ra:     m.RAdeg,
			dec:    m.DecDeg,
			distAU: astro.KmToAU(m.DistKm),
			distKm: m.DistKm,
			illum:  Illumination{PhaseFraction: m.IlluminatedFraction(), Magnitude: m.Magnitude()},
		}, nil

	case info.isPlanet:
		p, err := astro.GeocentricPlanet(info.planet, t)
		if err != nil {
			return geometry{}, fmt.Errorf("%s position: %w", info.Name, err)
		}
		g := geometry{
			ra:     p.RAdeg,
			dec:    p.DecDeg,
			distAU: p.DistAU,
			distKm: astro.AUToKm(p.DistAU),
		}
		mag, err := astro.PlanetMagnitude(info.planet, p)
		if err != nil {
			g.illumErr = fmt.Errorf("%s: %w: %v", info.Name, ErrNoIllumination, err)
		} else {
			g.illum = Illumination{PhaseFraction: p.IlluminatedFraction(), Magnitude: mag}
		}
		return g, nil
	}

	return geometry{}, fmt.Errorf("%w: %s has no position model", ErrUnknownBody, info.Name)
}
