// Package location resolves the observer position from whatever location
// signal is available, falling back to a geocentric view.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/litescript/ls-spacelight/internal/astro"
	"github.com/litescript/ls-spacelight/internal/logging"
)

// ErrDenied is returned by a provider when the user has withheld location.
var ErrDenied = errors.New("location access denied")

// DefaultTimeout bounds a single resolution attempt.
const DefaultTimeout = 5 * time.Second

// Provider yields the observer's position.
type Provider interface {
	Locate(ctx context.Context) (astro.Observer, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (astro.Observer, error)

// Locate calls f(ctx).
func (f ProviderFunc) Locate(ctx context.Context) (astro.Observer, error) {
	return f(ctx)
}

// Static is a fixed location, typically from command-line flags.
type Static struct {
	Observer astro.Observer
}

// NewStatic validates the coordinates and returns a Static provider.
func NewStatic(latDeg, lonDeg float64, name string) (Static, error) {
	obs, err := astro.NewObserver(latDeg, lonDeg, name)
	if err != nil {
		return Static{}, err
	}
	return Static{Observer: obs}, nil
}

// Locate returns the fixed observer.
func (s Static) Locate(ctx context.Context) (astro.Observer, error) {
	return s.Observer, nil
}

// Denied always refuses.
type Denied struct{}

// Locate returns ErrDenied.
func (Denied) Locate(ctx context.Context) (astro.Observer, error) {
	return astro.Observer{}, ErrDenied
}

// Chain tries each provider in order and returns the first success.
// Denial by any provider stops the chain.
type Chain []Provider

// Locate returns the first provider's successful result.
func (c Chain) Locate(ctx context.Context) (astro.Observer, error) {
	if len(c) == 0 {
		return astro.Observer{}, errors.New("no location providers")
	}

	var errs []error
	for _, p := range c {
		if p == nil {
			continue
		}
		obs, err := p.Locate(ctx)
		if err == nil {
			return obs, nil
		}
		if errors.Is(err, ErrDenied) || ctx.Err() != nil {
			return astro.Observer{}, err
		}
		errs = append(errs, err)
	}
	return astro.Observer{}, errors.Join(errs...)
}

// Mode says whether a fix has a surface location.
type Mode int

const (
	ModeGeocentric Mode = iota
	ModeLocated
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeLocated {
		return "located"
	}
	return "geocentric"
}

// Label is the user-facing status line for the mode.
func (m Mode) Label() string {
	if m == ModeLocated {
		return "using your location"
	}
	return "using geocentric view"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Fix is the outcome of a resolution.
type Fix struct {
	Observer   astro.Observer `json:"observer"`
	Mode       Mode           `json:"mode"`
	Reason     string         `json:"reason,omitempty"` // why the fix is geocentric
	ResolvedAt time.Time      `json:"resolved_at"`
}

// Located reports whether the fix has a surface location.
func (f Fix) Located() bool {
	return f.Mode == ModeLocated
}

// GeocentricFix returns the fallback fix with the given reason.
func GeocentricFix(reason string, at time.Time) Fix {
	return Fix{
		Observer:   astro.GeocentricObserver(),
		Mode:       ModeGeocentric,
		Reason:     reason,
		ResolvedAt: at,
	}
}

// Resolver turns a Provider into a Fix that is always usable.
type Resolver struct {
	provider Provider
	timeout  time.Duration
	log      *logging.Logger
	now      func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTimeout bounds each Resolve call.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(l *logging.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = l
	}
}

// NewResolver creates a resolver over p. A nil provider always resolves
// to the geocentric fix.
func NewResolver(p Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		provider: p,
		timeout:  DefaultTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve asks the provider for a location. It never fails: denial, timeout
// and provider errors all yield the geocentric fix.
func (r *Resolver) Resolve(ctx context.Context) Fix {
	if r.provider == nil {
		return GeocentricFix("no location provider", r.now())
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		obs astro.Observer
		err error
	}
	// Buffered so a provider that ignores ctx cannot leak a blocked send.
	ch := make(chan result, 1)
	go func() {
		obs, err := r.provider.Locate(ctx)
		ch <- result{obs, err}
	}()

	var res result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err != nil {
		reason := describe(res.err)
		r.log.Info("location unavailable (%s), using geocentric view", reason)
		return GeocentricFix(reason, r.now())
	}
	if res.obs.Geocentric {
		return GeocentricFix("provider returned no surface location", r.now())
	}
	obs, err := astro.NewObserver(res.obs.LatDeg, res.obs.LonDeg, res.obs.Name)
	if err != nil {
		r.log.Warn("location provider returned %v", err)
		return GeocentricFix(describe(err), r.now())
	}

	r.log.Info("located at %s", obs)
	return Fix{Observer: obs, Mode: ModeLocated, ResolvedAt: r.now()}
}

func describe(err error) string {
	switch {
	case errors.Is(err, ErrDenied):
		return "location denied"
	case errors.Is(err, context.DeadlineExceeded):
		return "location timed out"
	case errors.Is(err, context.Canceled):
		return "location canceled"
	default:
		return fmt.Sprintf("location failed: %v", err)
	}
}
