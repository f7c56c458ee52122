package sources

import (
	"context"
	"fmt"
	"time"
)

// KpHistoryLen is the number of one-minute samples kept.
const KpHistoryLen = 60

// KpSample is one planetary K-index reading.
type KpSample struct {
	Time time.Time `json:"time"`
	Kp   float64   `json:"kp"`
}

// KpSeries is the recent Kp history, oldest first.
type KpSeries []KpSample

// Current returns the latest reading.
func (s KpSeries) Current() (KpSample, bool) {
	if len(s) == 0 {
		return KpSample{}, false
	}
	return s[len(s)-1], true
}

// Values returns the Kp values, oldest first.
func (s KpSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, k := range s {
		out[i] = k.Kp
	}
	return out
}

// Max returns the highest reading, or 0 for an empty series.
func (s KpSeries) Max() float64 {
	var hi float64
	for _, k := range s {
		if k.Kp > hi {
			hi = k.Kp
		}
	}
	return hi
}

// kpRecord matches one element of the SWPC one-minute Kp array.
type kpRecord struct {
	TimeTag     string   `json:"time_tag"`
	KpIndex     *float64 `json:"kp_index"`
	EstimatedKp *float64 `json:"estimated_kp"`
}

// kpTimeLayout is the SWPC time_tag format (UTC, no zone).
const kpTimeLayout = "2006-01-02T15:04:05"

// Kp fetches the last hour of planetary K-index samples.
func (c *Client) Kp(ctx context.Context) (KpSeries, error) {
	var records []kpRecord
	if err := c.getJSON(ctx, c.endpoints.Kp, &records); err != nil {
		return nil, err
	}
	return parseKp(records)
}

func parseKp(records []kpRecord) (KpSeries, error) {
	series := make(KpSeries, 0, len(records))
	for _, r := range records {
		var kp float64
		switch {
		case r.EstimatedKp != nil:
			kp = *r.EstimatedKp
		case r.KpIndex != nil:
			kp = *r.KpIndex
		default:
			continue
		}
		if kp < 0 || kp > 9 {
			return nil, fmt.Errorf("kp %.2f out of range at %s", kp, r.TimeTag)
		}

		ts, err := time.ParseInLocation(kpTimeLayout, r.TimeTag, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid kp time_tag %q: %w", r.TimeTag, err)
		}
		series = append(series, KpSample{Time: ts, Kp: kp})
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("kp payload has no samples")
	}
	if len(series) > KpHistoryLen {
		series = series[len(series)-KpHistoryLen:]
	}
	return series, nil
}
