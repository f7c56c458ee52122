package sources

import (
	"context"
	"fmt"
	"time"
)

// Position sources.
const (
	SourceAPI  = "api"
	SourceSGP4 = "sgp4"
)

// ISSPosition is the ISS sub-satellite point.
type ISSPosition struct {
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	AltitudeKm  float64   `json:"altitude_km"`
	VelocityKmh float64   `json:"velocity_kmh"`
	Visibility  string    `json:"visibility,omitempty"` // "daylight" or "eclipsed"
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
}

// issResponse matches the wheretheiss.at satellite payload.
type issResponse struct {
	Name       string   `json:"name"`
	ID         int      `json:"id"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Altitude   float64  `json:"altitude"`
	Velocity   float64  `json:"velocity"`
	Visibility string   `json:"visibility"`
	Timestamp  int64    `json:"timestamp"`
	Units      string   `json:"units"`
}

// ISSPosition fetches the current ISS position from the tracking API.
func (c *Client) ISSPosition(ctx context.Context) (ISSPosition, error) {
	var r issResponse
	if err := c.getJSON(ctx, c.endpoints.ISS, &r); err != nil {
		return ISSPosition{}, err
	}
	return r.position()
}

func (r issResponse) position() (ISSPosition, error) {
	if r.Latitude == nil || r.Longitude == nil {
		return ISSPosition{}, fmt.Errorf("iss payload missing coordinates")
	}
	lat, lon := *r.Latitude, *r.Longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ISSPosition{}, fmt.Errorf("iss coordinates out of range: %.4f, %.4f", lat, lon)
	}

	alt, vel := r.Altitude, r.Velocity
	if r.Units == "miles" {
		alt *= 1.609344
		vel *= 1.609344
	}

	ts := time.Now().UTC()
	if r.Timestamp > 0 {
		ts = time.Unix(r.Timestamp, 0).UTC()
	}

	return ISSPosition{
		Latitude:    lat,
		Longitude:   lon,
		AltitudeKm:  alt,
		VelocityKmh: vel,
		Visibility:  r.Visibility,
		Timestamp:   ts,
		Source:      SourceAPI,
	}, nil
}
