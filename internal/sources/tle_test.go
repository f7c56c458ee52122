package sources

import (
	"context"
	"math"
	"net/http"
	"strings"
	"testing"
	"time"
)

const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

func TestParseTLE(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
	}{
		{"three line", "ISS (ZARYA)\n" + issLine1 + "\n" + issLine2 + "\n", "ISS (ZARYA)"},
		{"two line", issLine1 + "\r\n" + issLine2 + "\r\n", ""},
		{"leading blank lines", "\n\nISS (ZARYA)\n" + issLine1 + "\n" + issLine2, "ISS (ZARYA)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tle, err := ParseTLE([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseTLE: %v", err)
			}
			if tle.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", tle.Name, tt.wantName)
			}
			if tle.NORADID != 25544 {
				t.Errorf("NORADID = %d, want 25544", tle.NORADID)
			}
			// Day 264.51782528 of 2008 is 20 September, 12:25:40 UTC.
			want := time.Date(2008, 9, 20, 12, 25, 40, 0, time.UTC)
			if d := tle.Epoch.Sub(want); d < -time.Second || d > time.Second {
				t.Errorf("Epoch = %v, want ~%v", tle.Epoch, want)
			}
		})
	}
}

func TestParseTLE_Invalid(t *testing.T) {
	badChecksum := issLine1[:68] + "0"
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no element set", "ISS (ZARYA)\n"},
		{"short line", "1 25544U\n2 25544\n"},
		{"bad checksum", badChecksum + "\n" + issLine2},
		{"bad mean motion", issLine1 + "\n" + strings.Replace(issLine2, "15.72125391", "15.7212539x", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTLE([]byte(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTLEChecksum(t *testing.T) {
	if got := tleChecksum(issLine1); got != 7 {
		t.Errorf("line1 checksum = %d, want 7", got)
	}
	if got := tleChecksum(issLine2); got != 7 {
		t.Errorf("line2 checksum = %d, want 7", got)
	}
}

func TestParseEpoch(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"24001.00000000", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"24001.50000000", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"57001.00000000", time.Date(1957, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"56366.00000000", time.Date(2056, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseEpoch(tt.in)
		if err != nil {
			t.Errorf("parseEpoch(%q): %v", tt.in, err)
			continue
		}
		if d := got.Sub(tt.want); d < -time.Millisecond || d > time.Millisecond {
			t.Errorf("parseEpoch(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := parseEpoch("2x"); err == nil {
		t.Error("expected error for short epoch")
	}
}

func issTLE(t *testing.T) TLE {
	t.Helper()
	tle, err := ParseTLE([]byte("ISS (ZARYA)\n" + issLine1 + "\n" + issLine2))
	if err != nil {
		t.Fatalf("ParseTLE: %v", err)
	}
	return tle
}

func TestPropagator_Position(t *testing.T) {
	p, err := NewPropagator(issTLE(t))
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}

	at := time.Date(2008, 9, 20, 14, 0, 0, 0, time.UTC)
	pos, err := p.Position(at)
	if err != nil {
		t.Fatalf("Position: %v", err)
	}

	if pos.Source != SourceSGP4 {
		t.Errorf("Source = %q, want %q", pos.Source, SourceSGP4)
	}
	if math.Abs(pos.Latitude) > 52 {
		t.Errorf("Latitude = %.2f, exceeds inclination", pos.Latitude)
	}
	if pos.Longitude < -180 || pos.Longitude > 180 {
		t.Errorf("Longitude = %.2f out of range", pos.Longitude)
	}
	if pos.AltitudeKm < 300 || pos.AltitudeKm > 450 {
		t.Errorf("AltitudeKm = %.1f, want 300-450", pos.AltitudeKm)
	}
	if pos.VelocityKmh < 27000 || pos.VelocityKmh > 28500 {
		t.Errorf("VelocityKmh = %.0f, want ~27600", pos.VelocityKmh)
	}
	if !pos.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", pos.Timestamp, at)
	}
}

func TestPropagator_Moves(t *testing.T) {
	p, err := NewPropagator(issTLE(t))
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}

	at := time.Date(2008, 9, 20, 14, 0, 0, 0, time.UTC)
	a, err := p.Position(at)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Position(at.Add(5 * time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	// Five minutes at ~7.7 km/s is about 20 degrees of arc.
	if a.Latitude == b.Latitude && a.Longitude == b.Longitude {
		t.Error("position did not change over five minutes")
	}
}

func TestNewPropagator_Invalid(t *testing.T) {
	if _, err := NewPropagator(TLE{Line1: "1 bad", Line2: "2 bad"}); err == nil {
		t.Error("expected error for malformed lines")
	}
}

func TestGeodetic(t *testing.T) {
	tests := []struct {
		name          string
		x, y, z       float64
		lat, lon, alt float64
	}{
		{"equator prime meridian", 6778.137, 0, 0, 0, 0, 400},
		{"equator 90E", 0, 6778.137, 0, 0, 90, 400},
		{"north pole", 0, 0, 6356.752 + 400, 90, 0, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, alt := geodetic(tt.x, tt.y, tt.z)
			if math.Abs(lat-tt.lat) > 1e-6 || math.Abs(lon-tt.lon) > 1e-6 {
				t.Errorf("lat/lon = %.6f, %.6f, want %.1f, %.1f", lat, lon, tt.lat, tt.lon)
			}
			if math.Abs(alt-tt.alt) > 0.01 {
				t.Errorf("alt = %.3f, want %.1f", alt, tt.alt)
			}
		})
	}
}

func TestClient_TLE(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{
		"/tle": respond("ISS (ZARYA)             \n" + issLine1 + "\n" + issLine2 + "\n"),
	})

	tle, err := c.TLE(context.Background())
	if err != nil {
		t.Fatalf("TLE: %v", err)
	}
	if tle.Name != "ISS (ZARYA)" || tle.Line1 != issLine1 || tle.Line2 != issLine2 {
		t.Errorf("TLE = %+v", tle)
	}
}

func TestISSTracker_Fallback(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{"/iss": failWith(http.StatusServiceUnavailable)})
	tracker := NewISSTracker(c)
	tracker.now = func() time.Time { return time.Date(2008, 9, 20, 14, 0, 0, 0, time.UTC) }

	if _, err := tracker.Position(context.Background()); err == nil {
		t.Fatal("expected error without a TLE")
	}

	if err := tracker.SetTLE(issTLE(t)); err != nil {
		t.Fatalf("SetTLE: %v", err)
	}
	if !tracker.HasTLE() {
		t.Error("HasTLE = false after SetTLE")
	}

	pos, err := tracker.Position(context.Background())
	if err != nil {
		t.Fatalf("Position with fallback: %v", err)
	}
	if pos.Source != SourceSGP4 {
		t.Errorf("Source = %q, want %q", pos.Source, SourceSGP4)
	}
}

func TestISSTracker_PrefersAPI(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{"/iss": respond(issJSON)})
	tracker := NewISSTracker(c)
	if err := tracker.SetTLE(issTLE(t)); err != nil {
		t.Fatalf("SetTLE: %v", err)
	}

	pos, err := tracker.Position(context.Background())
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if pos.Source != SourceAPI {
		t.Errorf("Source = %q, want %q", pos.Source, SourceAPI)
	}
}

func TestISSTracker_RejectsBadTLE(t *testing.T) {
	tracker := NewISSTracker(NewClient())
	if err := tracker.SetTLE(TLE{Line1: "x", Line2: "y"}); err == nil {
		t.Error("expected error for bad TLE")
	}
	if tracker.HasTLE() {
		t.Error("bad TLE should not be installed")
	}
}
