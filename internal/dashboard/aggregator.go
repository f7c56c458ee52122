// Package dashboard composes the feed pollers, the location resolver and
// the sky calculators into one continuously refreshing view.
package dashboard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/litescript/ls-spacelight/internal/astro"
	"github.com/litescript/ls-spacelight/internal/config"
	"github.com/litescript/ls-spacelight/internal/ephem"
	"github.com/litescript/ls-spacelight/internal/feed"
	"github.com/litescript/ls-spacelight/internal/location"
	"github.com/litescript/ls-spacelight/internal/logging"
	"github.com/litescript/ls-spacelight/internal/metrics"
	"github.com/litescript/ls-spacelight/internal/sky"
	"github.com/litescript/ls-spacelight/internal/sources"
	"github.com/litescript/ls-spacelight/internal/state"
)

// Feed names, used for logging and metrics labels.
const (
	FeedISS      = "iss"
	FeedKp       = "kp"
	FeedNews     = "news"
	FeedLaunches = "launches"
	FeedCrew     = "crew"
	FeedTLE      = "tle"
)

// Snapshot is an immutable view of every widget's latest state.
type Snapshot struct {
	At       time.Time
	Fix      location.Fix
	Sky      state.Snapshot
	ISS      feed.Snapshot[sources.ISSPosition]
	Kp       feed.Snapshot[sources.KpSeries]
	News     feed.Snapshot[sources.Article]
	Launches feed.Snapshot[[]sources.Launch]
	Crew     feed.Snapshot[sources.Crew]
	TLE      feed.Snapshot[sources.TLE]
}

// Aggregator runs every feed poller and the sky task.
type Aggregator struct {
	cfg      config.Config
	log      *logging.Logger
	eph      ephem.Adapter
	resolver *location.Resolver
	tracker  *sources.ISSTracker
	state    *state.Manager
	clock    feed.Clock
	notify   func()

	iss      *feed.Poller[sources.ISSPosition]
	kp       *feed.Poller[sources.KpSeries]
	news     *feed.Poller[sources.Article]
	launches *feed.Poller[[]sources.Launch]
	crew     *feed.Poller[sources.Crew]
	tle      *feed.Poller[sources.TLE]

	mu         sync.RWMutex
	fix        location.Fix
	resolves   uint64 // resolves started
	locatedSeq uint64 // resolve that produced the current located fix

	wake      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the root logger; each component logs under its own name.
func WithLogger(l *logging.Logger) Option {
	return func(a *Aggregator) {
		a.log = l
	}
}

// WithEphemeris replaces the ephemeris engine.
func WithEphemeris(eph ephem.Adapter) Option {
	return func(a *Aggregator) {
		a.eph = eph
	}
}

// WithResolver replaces the location resolver built from the config.
func WithResolver(r *location.Resolver) Option {
	return func(a *Aggregator) {
		a.resolver = r
	}
}

// WithClock sets the clock for the sky task and every poller.
func WithClock(c feed.Clock) Option {
	return func(a *Aggregator) {
		a.clock = c
	}
}

// WithNotify registers fn to run after every sky pass and feed update.
// fn must not block.
func WithNotify(fn func()) Option {
	return func(a *Aggregator) {
		a.notify = fn
	}
}

// New wires pollers for every feed against client. recorder receives
// poller telemetry; pass nil to disable it.
func New(cfg config.Config, client *sources.Client, recorder feed.Recorder, opts ...Option) *Aggregator {
	a := &Aggregator{
		cfg:    cfg,
		eph:    ephem.NewEngine(),
		clock:  feed.SystemClock(),
		notify: func() {},
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.resolver == nil {
		a.resolver = location.NewResolver(cfg.LocationProvider(),
			location.WithTimeout(cfg.LocationTimeout),
			location.WithLogger(a.log.Named("location")))
	}

	a.state = state.NewManager(state.DefaultConfig())
	a.tracker = sources.NewISSTracker(client)
	a.fix = location.GeocentricFix("locating", a.clock.Now())

	pollerOpts := func(name string) []feed.Option {
		o := []feed.Option{
			feed.WithTimeout(cfg.FetchTimeout),
			feed.WithLogger(a.log.Named(name)),
			feed.WithClock(a.clock),
		}
		if recorder != nil {
			o = append(o, feed.WithRecorder(recorder))
		}
		return o
	}

	iv := cfg.Intervals
	a.iss = feed.New(FeedISS, a.tracker.Position, iv.ISS, pollerOpts(FeedISS)...)
	a.kp = feed.New(FeedKp, client.Kp, iv.Kp, pollerOpts(FeedKp)...)
	a.news = feed.New(FeedNews, client.Headline, iv.News, pollerOpts(FeedNews)...)
	a.launches = feed.New(FeedLaunches, client.Launches, iv.Launches, pollerOpts(FeedLaunches)...)
	a.crew = feed.New(FeedCrew, client.Crew, iv.Crew, pollerOpts(FeedCrew)...)
	a.tle = feed.New(FeedTLE, client.TLE, iv.TLE, pollerOpts(FeedTLE)...)

	a.tle.OnUpdate(func(s feed.Snapshot[sources.TLE]) {
		if s.LastError == nil && s.HasValue {
			if err := a.tracker.SetTLE(s.Value); err != nil {
				a.log.Named(FeedTLE).Warn("rejecting element set: %v", err)
			}
		}
		a.notify()
	})
	a.kp.OnUpdate(func(s feed.Snapshot[sources.KpSeries]) {
		if s.LastError == nil && s.HasValue {
			a.state.AddKp(s.Value...)
			if cur, ok := s.Value.Current(); ok {
				metrics.SetKp(cur.Kp)
			}
		}
		a.notify()
	})
	a.iss.OnUpdate(func(feed.Snapshot[sources.ISSPosition]) { a.notify() })
	a.news.OnUpdate(func(feed.Snapshot[sources.Article]) { a.notify() })
	a.launches.OnUpdate(func(feed.Snapshot[[]sources.Launch]) { a.notify() })
	a.crew.OnUpdate(func(feed.Snapshot[sources.Crew]) { a.notify() })

	return a
}

// Start launches every poller, the sky task and background location
// resolution. The first sky pass runs immediately in geocentric mode.
// Calling Start more than once has no effect.
func (a *Aggregator) Start(ctx context.Context) {
	a.startOnce.Do(func() {
		ctx, a.cancel = context.WithCancel(ctx)

		a.tle.Start(ctx)
		a.kp.Start(ctx)
		a.iss.Start(ctx)
		a.news.Start(ctx)
		a.launches.Start(ctx)
		a.crew.Start(ctx)

		a.wg.Add(2)
		go a.runSky(ctx)
		go func() {
			defer a.wg.Done()
			a.Relocate(ctx)
		}()
	})
}

// Stop halts every poller and the sky task. No ticker fires after Stop
// returns. Stop is idempotent.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() {
		// Prevent a later Start from launching anything.
		a.startOnce.Do(func() {})
		if a.cancel != nil {
			a.cancel()
		}

		var wg sync.WaitGroup
		for _, stop := range []func(){a.tle.Stop, a.kp.Stop, a.iss.Stop, a.news.Stop, a.launches.Stop, a.crew.Stop} {
			wg.Add(1)
			go func(stop func()) {
				defer wg.Done()
				stop()
			}(stop)
		}
		wg.Wait()
		a.wg.Wait()
	})
}

// Relocate resolves the observer again and triggers a sky pass when the
// fix changes. Feed pollers are not touched. Concurrent calls are ordered
// by start: a located result from an older call never replaces one from a
// newer call.
func (a *Aggregator) Relocate(ctx context.Context) location.Fix {
	a.mu.Lock()
	a.resolves++
	seq := a.resolves
	a.mu.Unlock()

	fix := a.resolver.Resolve(ctx)

	a.mu.Lock()
	prev := a.fix
	switch {
	case prev.Located() && !fix.Located():
		// A failed re-resolve never downgrades a located fix.
		a.log.Named("location").Debug("keeping %s: %s", prev.Observer, fix.Reason)
		fix = prev
	case prev.Located() && seq < a.locatedSeq:
		a.log.Named("location").Debug("discarding %s from superseded resolve %d", fix.Observer, seq)
		fix = prev
	case fix.Located():
		a.locatedSeq = seq
	}
	changed := fix.Mode != prev.Mode || fix.Observer != prev.Observer
	a.fix = fix
	a.mu.Unlock()

	metrics.SetObserverLocated(fix.Located())
	if changed {
		select {
		case a.wake <- struct{}{}:
		default:
		}
	}
	return fix
}

// Fix returns the current location fix.
func (a *Aggregator) Fix() location.Fix {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.fix
}

func (a *Aggregator) runSky(ctx context.Context) {
	defer a.wg.Done()

	ticker := a.clock.NewTicker(a.cfg.Intervals.Sky)
	defer ticker.Stop()

	a.skyPass()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			a.skyPass()
		case <-a.wake:
			a.skyPass()
		}
	}
}

// skyPass computes one sky report for a single captured instant.
func (a *Aggregator) skyPass() {
	log := a.log.Named("sky")
	start := time.Now()
	report, err := ComputeSky(a.eph, a.clock.Now(), a.Fix())
	if err != nil {
		log.Warn("sky pass failed: %v", err)
		a.state.Update(nil, err)
		a.notify()
		return
	}
	report.Duration = time.Since(start)
	metrics.ObserveSkyPass(report.Duration)
	log.Debug("sky pass for %s in %v", report.Fix.Observer, report.Duration.Round(time.Millisecond))

	a.state.Update(report, nil)
	a.notify()
}

// ComputeSky runs the visibility and moon calculators for fix at t.
func ComputeSky(eph ephem.Adapter, t time.Time, fix location.Fix) (*state.SkyReport, error) {
	t = t.UTC()
	bodies, err := sky.Compute(eph, ephem.AllBodies(), t, fix.Observer)
	if err != nil {
		return nil, err
	}
	moon, err := sky.ComputeMoon(eph, t, fix.Observer)
	if err != nil {
		return nil, err
	}

	report := &state.SkyReport{
		At:     t,
		Fix:    fix,
		Bodies: bodies,
		Moon:   moon,
	}
	if sun, ok := sky.Find(bodies, ephem.Sun); ok && fix.Located() {
		cond := astro.GetSkyCondition(sun.AltitudeDeg)
		report.Condition = &cond
	}
	return report, nil
}

// RefreshOnce resolves the location, polls every feed once in parallel and
// runs one sky pass. It is meant for headless output and does not require
// Start.
func (a *Aggregator) RefreshOnce(ctx context.Context) (Snapshot, error) {
	// Elements first so a failing ISS endpoint can fall back to SGP4.
	a.tle.Poll(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Relocate(gctx)
		return nil
	})
	g.Go(func() error { a.iss.Poll(gctx); return gctx.Err() })
	g.Go(func() error { a.kp.Poll(gctx); return gctx.Err() })
	g.Go(func() error { a.news.Poll(gctx); return gctx.Err() })
	g.Go(func() error { a.launches.Poll(gctx); return gctx.Err() })
	g.Go(func() error { a.crew.Poll(gctx); return gctx.Err() })
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	a.skyPass()
	return a.Snapshot(), nil
}

// Snapshot returns the latest state of every widget.
func (a *Aggregator) Snapshot() Snapshot {
	return Snapshot{
		At:       a.clock.Now(),
		Fix:      a.Fix(),
		Sky:      a.state.Snapshot(),
		ISS:      a.iss.Snapshot(),
		Kp:       a.kp.Snapshot(),
		News:     a.news.Snapshot(),
		Launches: a.launches.Snapshot(),
		Crew:     a.crew.Snapshot(),
		TLE:      a.tle.Snapshot(),
	}
}
