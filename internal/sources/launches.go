package sources

import (
	"context"
	"fmt"
	"time"
)

// Launch is an upcoming launch.
type Launch struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	StatusAbbrev string    `json:"status_abbrev"`
	NET          time.Time `json:"net"`
	Provider     string    `json:"provider"`
	Pad          string    `json:"pad"`
	Location     string    `json:"location"`
	Mission      string    `json:"mission,omitempty"`
}

// Badge returns a short status label for display.
func (l Launch) Badge() string {
	if l.StatusAbbrev != "" {
		return l.StatusAbbrev
	}
	if l.Status != "" {
		return l.Status
	}
	return "TBD"
}

// Until returns the time remaining before launch, negative once past.
func (l Launch) Until(now time.Time) time.Duration {
	return l.NET.Sub(now)
}

type launchResponse struct {
	Count   int              `json:"count"`
	Results []launchResultLL `json:"results"`
}

type launchResultLL struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	NET    string `json:"net"`
	Status struct {
		Name   string `json:"name"`
		Abbrev string `json:"abbrev"`
	} `json:"status"`
	LaunchServiceProvider struct {
		Name string `json:"name"`
	} `json:"launch_service_provider"`
	Pad struct {
		Name     string `json:"name"`
		Location struct {
			Name string `json:"name"`
		} `json:"location"`
	} `json:"pad"`
	Mission *struct {
		Name string `json:"name"`
	} `json:"mission"`
}

// Launches fetches the next upcoming launches, soonest first.
func (c *Client) Launches(ctx context.Context) ([]Launch, error) {
	var r launchResponse
	if err := c.getJSON(ctx, c.endpoints.Launches, &r); err != nil {
		return nil, err
	}
	if r.Results == nil {
		return nil, fmt.Errorf("launch payload missing results")
	}

	launches := make([]Launch, 0, len(r.Results))
	for _, res := range r.Results {
		net, err := time.Parse(time.RFC3339, res.NET)
		if err != nil {
			return nil, fmt.Errorf("launch %q: invalid net %q: %w", res.Name, res.NET, err)
		}
		l := Launch{
			ID:           res.ID,
			Name:         res.Name,
			Status:       res.Status.Name,
			StatusAbbrev: res.Status.Abbrev,
			NET:          net.UTC(),
			Provider:     res.LaunchServiceProvider.Name,
			Pad:          res.Pad.Name,
			Location:     res.Pad.Location.Name,
		}
		if res.Mission != nil {
			l.Mission = res.Mission.Name
		}
		launches = append(launches, l)
	}
	return launches, nil
}
