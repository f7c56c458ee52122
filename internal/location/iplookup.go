package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/litescript/ls-spacelight/internal/astro"
	"github.com/litescript/ls-spacelight/internal/version"
)

// DefaultIPLookupURL is the ip-api.com JSON endpoint for the caller's address.
const DefaultIPLookupURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city,country"

// IPLookup approximates the observer position from the public IP address.
type IPLookup struct {
	client *http.Client
	url    string
}

// IPLookupOption configures an IPLookup.
type IPLookupOption func(*IPLookup)

// WithURL overrides the lookup endpoint.
func WithURL(url string) IPLookupOption {
	return func(p *IPLookup) {
		p.url = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) IPLookupOption {
	return func(p *IPLookup) {
		p.client = client
	}
}

// NewIPLookup creates an IP geolocation provider. Request deadlines come
// from the caller's context.
func NewIPLookup(opts ...IPLookupOption) *IPLookup {
	p := &IPLookup{url: DefaultIPLookupURL}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = &http.Client{}
	}
	return p
}

type ipAPIResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	City    string   `json:"city"`
	Country string   `json:"country"`
}

// Locate queries the lookup service.
func (p *IPLookup) Locate(ctx context.Context) (astro.Observer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return astro.Observer{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := p.client.Do(req)
	if err != nil {
		return astro.Observer{}, fmt.Errorf("ip lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return astro.Observer{}, fmt.Errorf("ip lookup: unexpected status code %d", resp.StatusCode)
	}

	var r ipAPIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&r); err != nil {
		return astro.Observer{}, fmt.Errorf("ip lookup: decode: %w", err)
	}
	if r.Status != "success" {
		return astro.Observer{}, fmt.Errorf("ip lookup: %s", r.Message)
	}
	if r.Lat == nil || r.Lon == nil {
		return astro.Observer{}, fmt.Errorf("ip lookup: response missing coordinates")
	}

	name := r.City
	if name != "" && r.Country != "" {
		name += ", " + r.Country
	}
	return astro.NewObserver(*r.Lat, *r.Lon, name)
}
