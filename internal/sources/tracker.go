package sources

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ISSTracker reports the ISS position from the tracking API, falling back
// to SGP4 propagation of the latest element set when the API fails.
type ISSTracker struct {
	client *Client
	now    func() time.Time

	mu   sync.RWMutex
	prop *Propagator
}

// NewISSTracker creates a tracker backed by client.
func NewISSTracker(client *Client) *ISSTracker {
	return &ISSTracker{client: client, now: time.Now}
}

// SetTLE installs a new element set for the fallback.
func (t *ISSTracker) SetTLE(tle TLE) error {
	p, err := NewPropagator(tle)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.prop = p
	t.mu.Unlock()
	return nil
}

// HasTLE reports whether a fallback element set is installed.
func (t *ISSTracker) HasTLE() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.prop != nil
}

// Position returns the API position, or the propagated one if the API
// fails and an element set is available.
func (t *ISSTracker) Position(ctx context.Context) (ISSPosition, error) {
	pos, apiErr := t.client.ISSPosition(ctx)
	if apiErr == nil {
		return pos, nil
	}
	if ctx.Err() != nil {
		return ISSPosition{}, apiErr
	}

	t.mu.RLock()
	p := t.prop
	t.mu.RUnlock()
	if p == nil {
		return ISSPosition{}, apiErr
	}

	t.client.log.Debug("iss api failed, propagating TLE: %v", apiErr)
	pos, err := p.Position(t.now())
	if err != nil {
		return ISSPosition{}, fmt.Errorf("%w (fallback: %v)", apiErr, err)
	}
	return pos, nil
}
