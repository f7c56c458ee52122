package sky

import (
	"errors"
	"testing"
	"time"

	"github.com/litescript/ls-spacelight/internal/astro"
	"github.com/litescript/ls-spacelight/internal/ephem"
)

var (
	testTime    = time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	testLocated = astro.Observer{LatDeg: 40, LonDeg: -105, Name: "Test"}
)

func newFake() *fakeEphem {
	return &fakeEphem{
		pos: map[ephem.Body]astro.SkyCoord{
			ephem.Sun:     {RAdeg: 10, DecDeg: 1, ElDeg: -20, AzDeg: 300},
			ephem.Moon:    {RAdeg: 20, DecDeg: 2, ElDeg: 0, AzDeg: 90},
			ephem.Venus:   {RAdeg: 30, DecDeg: 3, ElDeg: 15, AzDeg: 200},
			ephem.Jupiter: {RAdeg: 40, DecDeg: 4, ElDeg: 55, AzDeg: 180},
			ephem.Saturn:  {RAdeg: 50, DecDeg: 5, ElDeg: 0.001, AzDeg: -10},
		},
		illum: map[ephem.Body]ephem.Illumination{
			ephem.Sun:     {PhaseFraction: 1, Magnitude: -26.7},
			ephem.Moon:    {PhaseFraction: 0.5, Magnitude: -10},
			ephem.Venus:   {PhaseFraction: 0.7, Magnitude: -4.2},
			ephem.Jupiter: {PhaseFraction: 1, Magnitude: -2.5},
		},
	}
}

func TestCompute_VisibleMatchesAltitude(t *testing.T) {
	f := newFake()
	bodies := []ephem.Body{ephem.Jupiter, ephem.Sun, ephem.Saturn, ephem.Moon, ephem.Venus}

	got, err := Compute(f, bodies, testTime, testLocated)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(bodies) {
		t.Fatalf("got %d positions, want %d", len(got), len(bodies))
	}

	for i, p := range got {
		if p.Body != bodies[i] {
			t.Errorf("position %d is %v, want input order %v", i, p.Body, bodies[i])
		}
		if p.Visible != (p.AltitudeDeg > 0) {
			t.Errorf("%v: visible=%v with altitude %.3f", p.Body, p.Visible, p.AltitudeDeg)
		}
		if !p.Topocentric {
			t.Errorf("%v: Topocentric should be true for a located observer", p.Body)
		}
		if p.AzimuthDeg < 0 || p.AzimuthDeg >= 360 {
			t.Errorf("%v: azimuth %.2f out of [0, 360)", p.Body, p.AzimuthDeg)
		}
	}

	// Horizon exactly at 0 is not visible.
	if moon, _ := Find(got, ephem.Moon); moon.Visible {
		t.Error("Moon at altitude 0 should not be visible")
	}
	if f.horizontalCalls != len(bodies) {
		t.Errorf("HorizontalPosition called %d times, want one per body", f.horizontalCalls)
	}
}

func TestCompute_UnknownMagnitude(t *testing.T) {
	f := newFake()
	got, err := Compute(f, []ephem.Body{ephem.Venus, ephem.Saturn}, testTime, testLocated)
	if err != nil {
		t.Fatalf("illumination failure should not fail the batch: %v", err)
	}

	if !got[0].MagnitudeKnown || got[0].Magnitude != -4.2 {
		t.Errorf("Venus magnitude = %v known=%v", got[0].Magnitude, got[0].MagnitudeKnown)
	}
	if got[1].MagnitudeKnown {
		t.Error("Saturn has no illumination and should have MagnitudeKnown=false")
	}
	if !got[1].Visible {
		t.Error("Saturn visibility should not depend on magnitude")
	}
}

func TestCompute_PositionErrorPropagates(t *testing.T) {
	f := newFake()
	boom := errors.New("ephemeris exploded")
	f.posErr = map[ephem.Body]error{ephem.Venus: boom}

	_, err := Compute(f, []ephem.Body{ephem.Sun, ephem.Venus}, testTime, testLocated)
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestCompute_Geocentric(t *testing.T) {
	f := newFake()
	got, err := Compute(f, []ephem.Body{ephem.Jupiter, ephem.Venus}, testTime, astro.GeocentricObserver())
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range got {
		if p.Visible || p.Topocentric {
			t.Errorf("%v: geocentric position must not be visible or topocentric", p.Body)
		}
		if p.AltitudeDeg != 0 || p.AzimuthDeg != 0 {
			t.Errorf("%v: alt/az = %v/%v, want zero", p.Body, p.AltitudeDeg, p.AzimuthDeg)
		}
		if p.RAdeg == 0 || !p.MagnitudeKnown {
			t.Errorf("%v: RA and magnitude should still be filled", p.Body)
		}
	}
	if f.horizontalCalls != 0 {
		t.Errorf("HorizontalPosition called %d times in geocentric mode", f.horizontalCalls)
	}
}

func TestCompute_Empty(t *testing.T) {
	got, err := Compute(newFake(), nil, testTime, testLocated)
	if err != nil || len(got) != 0 {
		t.Errorf("Compute(nil) = %v, %v", got, err)
	}
}

func TestSortForDisplay(t *testing.T) {
	in := []BodyPosition{
		{Body: ephem.Neptune, AltitudeDeg: -5},
		{Body: ephem.Venus, AltitudeDeg: 15, Visible: true},
		{Body: ephem.Sun, AltitudeDeg: -20},
		{Body: ephem.Jupiter, AltitudeDeg: 55, Visible: true},
		{Body: ephem.Moon, AltitudeDeg: 30, Visible: true},
	}

	got := SortForDisplay(in)
	want := []ephem.Body{ephem.Jupiter, ephem.Moon, ephem.Venus, ephem.Sun, ephem.Neptune}
	for i, b := range want {
		if got[i].Body != b {
			t.Errorf("sorted[%d] = %v, want %v", i, got[i].Body, b)
		}
	}

	if in[0].Body != ephem.Neptune {
		t.Error("SortForDisplay modified its input")
	}
}

func TestPartition(t *testing.T) {
	in := []BodyPosition{
		{Body: ephem.Sun, Visible: true},
		{Body: ephem.Moon},
		{Body: ephem.Mars, Visible: true},
	}
	vis, below := Partition(in)
	if len(vis) != 2 || len(below) != 1 {
		t.Fatalf("Partition = %d visible, %d below", len(vis), len(below))
	}
	if vis[1].Body != ephem.Mars || below[0].Body != ephem.Moon {
		t.Errorf("Partition lost order: %v / %v", vis, below)
	}
}

func TestCompute_RealEngine(t *testing.T) {
	eng := ephem.NewEngine()
	bodies := ephem.AllBodies()

	got, err := Compute(eng, bodies, time.Date(2024, 6, 20, 10, 0, 0, 0, time.UTC), testLocated)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range got {
		if p.Body != bodies[i] {
			t.Errorf("order mismatch at %d", i)
		}
		if p.Visible != (p.AltitudeDeg > 0) {
			t.Errorf("%v: visible=%v altitude=%.2f", p.Body, p.Visible, p.AltitudeDeg)
		}
		if !p.MagnitudeKnown {
			t.Errorf("%v: magnitude unknown", p.Body)
		}
	}

	// 10:00 UTC is before dawn in Colorado.
	if sun, _ := Find(got, ephem.Sun); sun.Visible {
		t.Errorf("Sun altitude %.2f before dawn, want below horizon", sun.AltitudeDeg)
	}
}
