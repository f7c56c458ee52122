package sky

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/litescript/ls-spacelight/internal/astro"
	"github.com/litescript/ls-spacelight/internal/ephem"
)

func TestPhaseForAngle_Principal(t *testing.T) {
	tests := []struct {
		angle float64
		want  MoonPhase
	}{
		{0, NewMoon},
		{90, FirstQuarter},
		{180, FullMoon},
		{270, LastQuarter},
		{45, WaxingCrescent},
		{135, WaxingGibbous},
		{225, WaningGibbous},
		{315, WaningCrescent},
		{359.99, NewMoon},
		{360, NewMoon},
		{-90, LastQuarter},
		{6.1, WaxingCrescent},
		{6.0999, NewMoon},
		{346.9, NewMoon},
		{346.8999, WaningCrescent},
	}
	for _, tt := range tests {
		if got := PhaseForAngle(tt.angle); got != tt.want {
			t.Errorf("PhaseForAngle(%v) = %v, want %v", tt.angle, got, tt.want)
		}
	}
}

func TestPhaseBoundaries_Partition(t *testing.T) {
	// Every sampled angle falls in exactly one range.
	for a := 0.0; a < 360; a += 0.05 {
		n := 0
		for _, r := range PhaseBoundaries {
			if r.Contains(a) {
				n++
			}
		}
		if n != 1 {
			t.Fatalf("angle %.2f is in %d ranges", a, n)
		}
	}

	// Consecutive ranges share endpoints, and the last wraps to the first.
	for i, r := range PhaseBoundaries {
		next := PhaseBoundaries[(i+1)%len(PhaseBoundaries)]
		if r.End != next.Start {
			t.Errorf("%v ends at %v but %v starts at %v", r.Phase, r.End, next.Phase, next.Start)
		}
		if r.Phase != MoonPhase(i) {
			t.Errorf("range %d is %v, want %v", i, r.Phase, MoonPhase(i))
		}
	}
}

func TestMoonPhaseString(t *testing.T) {
	if FirstQuarter.String() != "First Quarter" {
		t.Errorf("FirstQuarter.String() = %q", FirstQuarter.String())
	}
	if MoonPhase(42).String() != "Unknown" {
		t.Errorf("MoonPhase(42).String() = %q", MoonPhase(42).String())
	}
	if FullMoon.Symbol() != "🌕" {
		t.Errorf("FullMoon.Symbol() = %q", FullMoon.Symbol())
	}
}

func TestComputeMoon_Located(t *testing.T) {
	rise := testTime.Add(3 * time.Hour)
	set := testTime.Add(15 * time.Hour)
	f := newFake()
	f.phaseAngle = 92
	f.rise, f.set = &rise, &set

	got, err := ComputeMoon(f, testTime, testLocated)
	if err != nil {
		t.Fatal(err)
	}

	if got.Phase != FirstQuarter {
		t.Errorf("Phase = %v, want First Quarter", got.Phase)
	}
	if got.IlluminationPercent != 50 {
		t.Errorf("IlluminationPercent = %d, want 50", got.IlluminationPercent)
	}
	if got.Rise == nil || !got.Rise.Equal(rise) {
		t.Errorf("Rise = %v, want %v", got.Rise, rise)
	}
	if got.Set == nil || !got.Set.Equal(set) {
		t.Errorf("Set = %v, want %v", got.Set, set)
	}
	if got.Geocentric {
		t.Error("Geocentric should be false for a located observer")
	}
	if !got.Waxing() {
		t.Error("92° elongation should be waxing")
	}
}

func TestComputeMoon_NoCrossing(t *testing.T) {
	f := newFake()
	f.phaseAngle = 200

	got, err := ComputeMoon(f, testTime, astro.Observer{LatDeg: 85})
	if err != nil {
		t.Fatal(err)
	}
	if got.Rise != nil || got.Set != nil {
		t.Errorf("expected no rise/set, got %v / %v", got.Rise, got.Set)
	}
	if f.searches != 2 {
		t.Errorf("searches = %d, want 2", f.searches)
	}
}

func TestComputeMoon_Geocentric(t *testing.T) {
	rise := testTime.Add(time.Hour)
	f := newFake()
	f.rise = &rise

	got, err := ComputeMoon(f, testTime, astro.GeocentricObserver())
	if err != nil {
		t.Fatal(err)
	}
	if !got.Geocentric {
		t.Error("Geocentric should be true")
	}
	if got.Rise != nil || got.Set != nil {
		t.Error("geocentric state must not have rise/set")
	}
	if f.searches != 0 {
		t.Errorf("searches = %d, want none in geocentric mode", f.searches)
	}
}

func TestComputeMoon_Errors(t *testing.T) {
	f := newFake()
	delete(f.illum, ephem.Moon)
	if _, err := ComputeMoon(f, testTime, testLocated); !errors.Is(err, ephem.ErrNoIllumination) {
		t.Errorf("illumination error = %v", err)
	}

	f = newFake()
	boom := errors.New("search failed")
	f.searchErr = boom
	if _, err := ComputeMoon(f, testTime, testLocated); !errors.Is(err, boom) {
		t.Errorf("search error = %v, want %v", err, boom)
	}
}

func TestIlluminationPercent(t *testing.T) {
	tests := []struct {
		fraction float64
		want     int
	}{
		{0, 0}, {0.004, 0}, {0.006, 1}, {0.5, 50}, {0.996, 100}, {1, 100}, {-0.1, 0}, {1.2, 100},
	}
	for _, tt := range tests {
		if got := illuminationPercent(tt.fraction); got != tt.want {
			t.Errorf("illuminationPercent(%v) = %d, want %d", tt.fraction, got, tt.want)
		}
	}
}

func TestComputeMoon_NewMoonGeocentric(t *testing.T) {
	// Location denied on 2024-01-11 00:00 UTC, about 12 hours before new moon.
	got, err := ComputeMoon(ephem.NewEngine(), testTime, astro.GeocentricObserver())
	if err != nil {
		t.Fatal(err)
	}

	if got.Phase != NewMoon {
		t.Errorf("Phase = %v (%.2f°), want New Moon", got.Phase, got.PhaseAngleDeg)
	}
	if got.IlluminationPercent > 1 {
		t.Errorf("IlluminationPercent = %d, want ~0", got.IlluminationPercent)
	}
	if got.Rise != nil || got.Set != nil {
		t.Error("rise/set should be absent")
	}
	if !got.Geocentric {
		t.Error("mode should be geocentric")
	}
}

func TestComputeMoon_RealEngineLocated(t *testing.T) {
	obs := astro.Observer{LatDeg: 51.48, LonDeg: 0}
	got, err := ComputeMoon(ephem.NewEngine(), testTime, obs)
	if err != nil {
		t.Fatal(err)
	}
	if got.Rise == nil || got.Set == nil {
		t.Fatalf("mid-latitude moon should rise and set within %d days", RiseSetWindowDays)
	}
	for _, at := range []time.Time{*got.Rise, *got.Set} {
		if at.Before(testTime) || at.Sub(testTime) > 26*time.Hour {
			t.Errorf("crossing %v not within a day of %v", at, testTime)
		}
	}
	if math.Abs(got.Rise.Sub(*got.Set).Hours()) < 1 {
		t.Error("rise and set should be hours apart")
	}
}
