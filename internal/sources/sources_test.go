package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// newTestClient serves each path from handlers and points every endpoint
// at the test server.
func newTestClient(t *testing.T, handlers map[string]http.HandlerFunc) *Client {
	t.Helper()

	mux := http.NewServeMux()
	for path, h := range handlers {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewClient(
		WithEndpoints(Endpoints{
			ISS:      srv.URL + "/iss",
			TLE:      srv.URL + "/tle",
			Launches: srv.URL + "/launches",
			Crew:     srv.URL + "/crew",
			Kp:       srv.URL + "/kp",
			News:     srv.URL + "/news",
		}),
		WithLimiter(NewHostLimiter(rate.Inf, 1)),
		WithTimeout(5*time.Second),
	)
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}
}

func failWith(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

const issJSON = `{"name":"iss","id":25544,"latitude":50.11496269845,"longitude":118.07900427317,
"altitude":408.05526028199,"velocity":27635.971970874,"visibility":"daylight",
"footprint":4446.1877699772,"timestamp":1364069476,"daynum":2456375.3411574,
"solar_lat":1.3327003598631,"solar_lon":238.78610691196,"units":"kilometers"}`

func TestClient_ISSPosition(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{"/iss": respond(issJSON)})

	pos, err := c.ISSPosition(context.Background())
	if err != nil {
		t.Fatalf("ISSPosition: %v", err)
	}
	if pos.Latitude != 50.11496269845 || pos.Longitude != 118.07900427317 {
		t.Errorf("position = %.5f, %.5f", pos.Latitude, pos.Longitude)
	}
	if pos.AltitudeKm < 408 || pos.AltitudeKm > 409 {
		t.Errorf("AltitudeKm = %.2f", pos.AltitudeKm)
	}
	if pos.Visibility != "daylight" {
		t.Errorf("Visibility = %q", pos.Visibility)
	}
	if !pos.Timestamp.Equal(time.Unix(1364069476, 0)) {
		t.Errorf("Timestamp = %v", pos.Timestamp)
	}
	if pos.Source != SourceAPI {
		t.Errorf("Source = %q, want %q", pos.Source, SourceAPI)
	}
}

func TestClient_ISSPosition_Miles(t *testing.T) {
	body := `{"latitude":0,"longitude":0,"altitude":250,"velocity":17000,"timestamp":1364069476,"units":"miles"}`
	c := newTestClient(t, map[string]http.HandlerFunc{"/iss": respond(body)})

	pos, err := c.ISSPosition(context.Background())
	if err != nil {
		t.Fatalf("ISSPosition: %v", err)
	}
	if pos.AltitudeKm < 402 || pos.AltitudeKm > 403 {
		t.Errorf("AltitudeKm = %.2f, want ~402.3", pos.AltitudeKm)
	}
}

func TestClient_ISSPosition_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", failWith(http.StatusInternalServerError)},
		{"malformed", respond(`{"latitude":`)},
		{"missing coordinates", respond(`{"altitude":400}`)},
		{"latitude out of range", respond(`{"latitude":95,"longitude":0}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, map[string]http.HandlerFunc{"/iss": tt.handler})
			if _, err := c.ISSPosition(context.Background()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestClient_StatusError(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{"/news": failWith(http.StatusTooManyRequests)})

	_, err := c.Headline(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.Code != http.StatusTooManyRequests {
		t.Errorf("Code = %d", se.Code)
	}
}

func TestClient_UserAgent(t *testing.T) {
	var got string
	c := newTestClient(t, map[string]http.HandlerFunc{
		"/news": func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Get("User-Agent")
			w.Write([]byte(`{"count":1,"results":[{"id":1,"title":"t"}]}`))
		},
	})

	if _, err := c.Headline(context.Background()); err != nil {
		t.Fatalf("Headline: %v", err)
	}
	if !strings.HasPrefix(got, "ls-spacelight/") {
		t.Errorf("User-Agent = %q", got)
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{"/crew": respond(`{}`)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Crew(ctx); err == nil {
		t.Error("expected error for canceled context")
	}
}

const launchesJSON = `{"count":2,"results":[
{"id":"a1","name":"Falcon 9 Block 5 | Starlink Group 6-1","net":"2024-03-01T12:30:00Z",
 "status":{"id":1,"name":"Go for Launch","abbrev":"Go"},
 "launch_service_provider":{"name":"SpaceX"},
 "pad":{"name":"Space Launch Complex 40","location":{"name":"Cape Canaveral SFS, FL, USA"}},
 "mission":{"name":"Starlink Group 6-1"}},
{"id":"b2","name":"Electron | Test","net":"2024-03-02T08:00:00Z",
 "status":{"id":2,"name":"To Be Determined","abbrev":"TBD"},
 "launch_service_provider":{"name":"Rocket Lab"},
 "pad":{"name":"LC-1B","location":{"name":"Mahia Peninsula, New Zealand"}},
 "mission":null}]}`

func TestClient_Launches(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{"/launches": respond(launchesJSON)})

	launches, err := c.Launches(context.Background())
	if err != nil {
		t.Fatalf("Launches: %v", err)
	}
	if len(launches) != 2 {
		t.Fatalf("got %d launches, want 2", len(launches))
	}

	l := launches[0]
	if l.Provider != "SpaceX" || l.Pad != "Space Launch Complex 40" || l.Location != "Cape Canaveral SFS, FL, USA" {
		t.Errorf("launch[0] = %+v", l)
	}
	if l.Badge() != "Go" {
		t.Errorf("Badge = %q, want Go", l.Badge())
	}
	if l.Mission != "Starlink Group 6-1" {
		t.Errorf("Mission = %q", l.Mission)
	}
	want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	if !l.NET.Equal(want) {
		t.Errorf("NET = %v, want %v", l.NET, want)
	}
	if got := l.Until(want.Add(-time.Hour)); got != time.Hour {
		t.Errorf("Until = %v, want 1h", got)
	}
	if launches[1].Mission != "" {
		t.Errorf("null mission = %q, want empty", launches[1].Mission)
	}
}

func TestClient_Launches_BadNET(t *testing.T) {
	body := `{"count":1,"results":[{"id":"x","name":"n","net":"soon"}]}`
	c := newTestClient(t, map[string]http.HandlerFunc{"/launches": respond(body)})

	if _, err := c.Launches(context.Background()); err == nil {
		t.Error("expected error for invalid net")
	}
}

func TestLaunch_Badge(t *testing.T) {
	tests := []struct {
		launch Launch
		want   string
	}{
		{Launch{StatusAbbrev: "Go", Status: "Go for Launch"}, "Go"},
		{Launch{Status: "Hold"}, "Hold"},
		{Launch{}, "TBD"},
	}
	for _, tt := range tests {
		if got := tt.launch.Badge(); got != tt.want {
			t.Errorf("Badge(%+v) = %q, want %q", tt.launch, got, tt.want)
		}
	}
}

const crewJSON = `{"message":"success","number":4,"people":[
{"name":"Jasmin Moghbeli","craft":"ISS"},
{"name":"Jing Haiping","craft":"Tiangong"},
{"name":"Andreas Mogensen","craft":"ISS"},
{"name":"Satoshi Furukawa","craft":"ISS"}]}`

func TestClient_Crew(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{"/crew": respond(crewJSON)})

	crew, err := c.Crew(context.Background())
	if err != nil {
		t.Fatalf("Crew: %v", err)
	}
	if crew.Number != 4 {
		t.Errorf("Number = %d, want 4", crew.Number)
	}

	groups := crew.ByCraft()
	if len(groups) != 2 {
		t.Fatalf("got %d crafts, want 2", len(groups))
	}
	if groups[0].Craft != "ISS" || len(groups[0].People) != 3 {
		t.Errorf("groups[0] = %+v, want ISS with 3", groups[0])
	}
	if groups[0].People[0] != "Jasmin Moghbeli" {
		t.Errorf("order not preserved within craft: %v", groups[0].People)
	}
	if groups[1].Craft != "Tiangong" {
		t.Errorf("groups[1] = %+v", groups[1])
	}
}

func TestClient_Crew_Failure(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{"/crew": respond(`{"message":"error"}`)})

	if _, err := c.Crew(context.Background()); err == nil {
		t.Error("expected error for non-success message")
	}
}

func TestClient_Kp(t *testing.T) {
	var b strings.Builder
	b.WriteString("[")
	start := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	for i := 0; i < 90; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		ts := start.Add(time.Duration(i) * time.Minute).Format(kpTimeLayout)
		b.WriteString(`{"time_tag":"` + ts + `","kp_index":7,"estimated_kp":7.33,"kp":"7P"}`)
	}
	b.WriteString("]")

	c := newTestClient(t, map[string]http.HandlerFunc{"/kp": respond(b.String())})

	series, err := c.Kp(context.Background())
	if err != nil {
		t.Fatalf("Kp: %v", err)
	}
	if len(series) != KpHistoryLen {
		t.Fatalf("len = %d, want %d", len(series), KpHistoryLen)
	}

	cur, ok := series.Current()
	if !ok {
		t.Fatal("Current: no sample")
	}
	if cur.Kp != 7.33 {
		t.Errorf("current Kp = %.2f, want estimated 7.33", cur.Kp)
	}
	if want := start.Add(89 * time.Minute); !cur.Time.Equal(want) {
		t.Errorf("current time = %v, want %v", cur.Time, want)
	}
	if !series[0].Time.Equal(start.Add(30 * time.Minute)) {
		t.Errorf("oldest kept = %v", series[0].Time)
	}
	if series.Max() != 7.33 {
		t.Errorf("Max = %.2f", series.Max())
	}
}

func TestParseKp(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		records []kpRecord
		want    float64
		wantErr bool
	}{
		{
			name:    "kp_index fallback",
			records: []kpRecord{{TimeTag: "2024-01-01T00:00:00", KpIndex: f(3)}},
			want:    3,
		},
		{
			name: "skips empty records",
			records: []kpRecord{
				{TimeTag: "2024-01-01T00:00:00", EstimatedKp: f(2.67)},
				{TimeTag: "2024-01-01T00:01:00"},
			},
			want: 2.67,
		},
		{name: "empty", records: nil, wantErr: true},
		{name: "out of range", records: []kpRecord{{TimeTag: "2024-01-01T00:00:00", KpIndex: f(12)}}, wantErr: true},
		{name: "bad time", records: []kpRecord{{TimeTag: "yesterday", KpIndex: f(1)}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := parseKp(tt.records)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseKp: %v", err)
			}
			cur, _ := series.Current()
			if cur.Kp != tt.want {
				t.Errorf("current = %.2f, want %.2f", cur.Kp, tt.want)
			}
		})
	}
}

func TestKpSeries_Empty(t *testing.T) {
	var s KpSeries
	if _, ok := s.Current(); ok {
		t.Error("Current on empty series should report false")
	}
	if s.Max() != 0 || len(s.Values()) != 0 {
		t.Error("empty series should have no values")
	}
}

func TestClient_Headline(t *testing.T) {
	body := `{"count":12345,"next":"x","results":[{"id":22000,"title":"Starship flies again",
"url":"https://example.com/a","image_url":"","news_site":"SpaceNews","summary":"s",
"published_at":"2024-03-14T13:25:00Z","updated_at":"2024-03-14T13:30:00Z","featured":false}]}`
	c := newTestClient(t, map[string]http.HandlerFunc{"/news": respond(body)})

	a, err := c.Headline(context.Background())
	if err != nil {
		t.Fatalf("Headline: %v", err)
	}
	if a.Title != "Starship flies again" || a.Site != "SpaceNews" {
		t.Errorf("article = %+v", a)
	}
	if !a.PublishedAt.Equal(time.Date(2024, 3, 14, 13, 25, 0, 0, time.UTC)) {
		t.Errorf("PublishedAt = %v", a.PublishedAt)
	}
}

func TestClient_Headline_Empty(t *testing.T) {
	c := newTestClient(t, map[string]http.HandlerFunc{"/news": respond(`{"count":0,"results":[]}`)})

	if _, err := c.Headline(context.Background()); err == nil {
		t.Error("expected error for empty results")
	}
}

func TestHostLimiter(t *testing.T) {
	l := NewHostLimiter(rate.Every(time.Hour), 1)

	if l.Limiter("a.example") != l.Limiter("a.example") {
		t.Error("limiter not reused for the same host")
	}

	ctx := context.Background()
	if err := l.Wait(ctx, "a.example"); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	// The burst is spent; a second wait cannot be satisfied before the deadline.
	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "a.example"); err == nil {
		t.Error("second Wait should fail under a one-per-hour limit")
	}

	// Other hosts are independent.
	if err := l.Wait(context.Background(), "b.example"); err != nil {
		t.Errorf("other host Wait: %v", err)
	}
}
