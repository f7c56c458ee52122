package sky

import (
	"errors"
	"time"

	"github.com/litescript/ls-spacelight/internal/astro"
	"github.com/litescript/ls-spacelight/internal/ephem"
)

// fakeEphem returns canned values per body for calculator tests.
type fakeEphem struct {
	pos        map[ephem.Body]astro.SkyCoord // RA/Dec plus the Az/El the horizontal call returns
	illum      map[ephem.Body]ephem.Illumination
	posErr     map[ephem.Body]error
	phaseAngle float64
	rise, set  *time.Time
	searchErr  error

	horizontalCalls int
	searches        int
}

func (f *fakeEphem) EquatorialPosition(body ephem.Body, t time.Time, obs astro.Observer) (astro.SkyCoord, error) {
	if err := f.posErr[body]; err != nil {
		return astro.SkyCoord{}, err
	}
	c := f.pos[body]
	return astro.SkyCoord{RAdeg: c.RAdeg, DecDeg: c.DecDeg}, nil
}

func (f *fakeEphem) HorizontalPosition(t time.Time, obs astro.Observer, raDeg, decDeg float64) (float64, float64) {
	f.horizontalCalls++
	for _, c := range f.pos {
		if c.RAdeg == raDeg && c.DecDeg == decDeg {
			return c.ElDeg, c.AzDeg
		}
	}
	return 0, 0
}

func (f *fakeEphem) Illumination(body ephem.Body, t time.Time) (ephem.Illumination, error) {
	il, ok := f.illum[body]
	if !ok {
		return ephem.Illumination{}, ephem.ErrNoIllumination
	}
	return il, nil
}

func (f *fakeEphem) MoonPhaseAngle(t time.Time) float64 {
	return f.phaseAngle
}

func (f *fakeEphem) SearchRiseSet(body ephem.Body, obs astro.Observer, dir astro.Direction, start time.Time, windowDays int) (time.Time, bool, error) {
	f.searches++
	if f.searchErr != nil {
		return time.Time{}, false, f.searchErr
	}
	if windowDays != RiseSetWindowDays {
		return time.Time{}, false, errors.New("unexpected window")
	}
	target := f.set
	if dir == astro.Rising {
		target = f.rise
	}
	if target == nil {
		return time.Time{}, false, nil
	}
	return *target, true, nil
}
