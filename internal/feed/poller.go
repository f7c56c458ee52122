// Package feed polls external data sources on fixed intervals and publishes
// the latest result as a snapshot that records staleness.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/litescript/ls-spacelight/internal/logging"
)

// ErrFetchPanic wraps a panic recovered from a fetch function.
var ErrFetchPanic = errors.New("fetch panicked")

// FetchFunc produces a fresh value or fails. The returned value must not be
// mutated after return; snapshots share it.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Snapshot is the published state of one poller.
//
// Value only changes on a successful cycle. A failed cycle increments
// ConsecutiveFailures and keeps the previous value.
type Snapshot[T any] struct {
	Name                string
	Value               T
	HasValue            bool
	LastSuccessAt       time.Time
	LastAttemptAt       time.Time
	ConsecutiveFailures int
	LastError           error
	Seq                 uint64        // Cycle that produced Value
	Interval            time.Duration // Polling interval of the feed
}

// Age returns how old the value is at now, or 0 if there is none.
func (s Snapshot[T]) Age(now time.Time) time.Duration {
	if !s.HasValue {
		return 0
	}
	return now.Sub(s.LastSuccessAt)
}

// Stale reports whether the feed is failing or its value has missed more
// than one scheduled refresh.
func (s Snapshot[T]) Stale(now time.Time) bool {
	if s.ConsecutiveFailures > 0 {
		return true
	}
	return s.HasValue && s.Interval > 0 && s.Age(now) > 2*s.Interval
}

// Recorder receives poller telemetry. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveFetch(feed string, d time.Duration, err error)
	SetConsecutiveFailures(feed string, n int)
	IncDiscarded(feed string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFetch(string, time.Duration, error) {}
func (nopRecorder) SetConsecutiveFailures(string, int)        {}
func (nopRecorder) IncDiscarded(string)                       {}

// Option configures a Poller.
type Option func(*options)

type options struct {
	immediate bool
	timeout   time.Duration
	log       *logging.Logger
	rec       Recorder
	clock     Clock
}

// WithImmediate controls whether the first fetch runs on Start rather than
// after one interval. Default true.
func WithImmediate(immediate bool) Option {
	return func(o *options) {
		o.immediate = immediate
	}
}

// WithTimeout bounds each fetch with a context deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger sets the logger for cycle outcomes.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithRecorder sets the telemetry hook.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.rec = r
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// Poller repeatedly invokes a fetch function on a fixed interval.
//
// Each tick runs the fetch on its own goroutine so a slow source never
// delays the ticker. Overlapping fetches are allowed: every cycle carries a
// sequence number and a result older than the newest committed success is
// discarded. There is no backoff.
type Poller[T any] struct {
	name     string
	fetch    FetchFunc[T]
	interval time.Duration
	opts     options

	mu         sync.Mutex
	snap       Snapshot[T]
	nextSeq    uint64
	successSeq uint64
	commits    uint64
	stopped    bool
	cancel     context.CancelFunc
	listeners  []func(Snapshot[T])

	notifyMu  sync.Mutex
	delivered uint64 // last commit handed to listeners

	startOnce sync.Once
	stopOnce  sync.Once
	loopDone  chan struct{}
	inflight  sync.WaitGroup
}

// New creates a poller. It does nothing until Start or Poll is called.
func New[T any](name string, fetch FetchFunc[T], interval time.Duration, opts ...Option) *Poller[T] {
	o := options{
		immediate: true,
		rec:       nopRecorder{},
		clock:     realClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller[T]{
		name:     name,
		fetch:    fetch,
		interval: interval,
		opts:     o,
		snap:     Snapshot[T]{Name: name, Interval: interval},
		loopDone: make(chan struct{}),
	}
}

// Name returns the feed name.
func (p *Poller[T]) Name() string {
	return p.name
}

// OnUpdate registers fn to run after every committed cycle, success or
// failure. fn runs on the fetch goroutine and must not block. Listeners see
// commits in order; a commit overtaken by a newer one before delivery is
// skipped.
func (p *Poller[T]) OnUpdate(fn func(Snapshot[T])) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Snapshot returns a copy of the current state.
func (p *Poller[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Start begins ticking. Calling Start more than once, or after Stop, has no effect.
func (p *Poller[T]) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.mu.Lock()
		if p.stopped {
			p.mu.Unlock()
			close(p.loopDone)
			return
		}
		ctx, p.cancel = context.WithCancel(ctx)
		p.mu.Unlock()

		go p.run(ctx)
	})
}

// Stop halts the ticker and waits for the scheduling loop to exit. Results
// of fetches still in flight are discarded. Stop is idempotent.
func (p *Poller[T]) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		cancel := p.cancel
		p.mu.Unlock()

		if cancel == nil {
			// Never started; make Start a no-op.
			p.startOnce.Do(func() { close(p.loopDone) })
			return
		}
		cancel()
		<-p.loopDone
	})
}

// Wait blocks until every launched fetch has returned.
func (p *Poller[T]) Wait() {
	p.inflight.Wait()
}

// Poll runs one synchronous cycle and returns the resulting snapshot.
func (p *Poller[T]) Poll(ctx context.Context) Snapshot[T] {
	seq := p.beginCycle()
	p.inflight.Add(1)
	p.cycle(ctx, seq)
	return p.Snapshot()
}

func (p *Poller[T]) run(ctx context.Context) {
	defer close(p.loopDone)

	ticker := p.opts.clock.NewTicker(p.interval)
	defer ticker.Stop()

	if p.opts.immediate {
		p.launch(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			p.launch(ctx)
		}
	}
}

func (p *Poller[T]) launch(ctx context.Context) {
	seq := p.beginCycle()
	p.inflight.Add(1)
	go p.cycle(ctx, seq)
}

func (p *Poller[T]) beginCycle() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSeq++
	return p.nextSeq
}

func (p *Poller[T]) cycle(ctx context.Context, seq uint64) {
	defer p.inflight.Done()

	if p.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.timeout)
		defer cancel()
	}

	start := p.opts.clock.Now()
	val, err := p.safeFetch(ctx)
	p.opts.rec.ObserveFetch(p.name, p.opts.clock.Now().Sub(start), err)

	p.commit(seq, start, val, err)
}

func (p *Poller[T]) safeFetch(ctx context.Context) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFetchPanic, r)
		}
	}()
	return p.fetch(ctx)
}

// commit applies a cycle result. It reports false if the result was discarded.
func (p *Poller[T]) commit(seq uint64, attemptAt time.Time, val T, err error) bool {
	p.mu.Lock()
	if p.stopped || seq < p.successSeq {
		p.mu.Unlock()
		p.opts.log.Debug("discarding result of cycle %d", seq)
		p.opts.rec.IncDiscarded(p.name)
		return false
	}

	if attemptAt.After(p.snap.LastAttemptAt) {
		p.snap.LastAttemptAt = attemptAt
	}
	if err != nil {
		p.snap.ConsecutiveFailures++
		p.snap.LastError = err
	} else {
		p.snap.Value = val
		p.snap.HasValue = true
		p.snap.LastSuccessAt = p.opts.clock.Now()
		p.snap.ConsecutiveFailures = 0
		p.snap.LastError = nil
		p.snap.Seq = seq
		p.successSeq = seq
	}
	p.commits++
	commit := p.commits
	snap := p.snap
	listeners := make([]func(Snapshot[T]), len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	if err != nil {
		p.opts.log.Warn("fetch failed (%d consecutive): %v", snap.ConsecutiveFailures, err)
	} else {
		p.opts.log.Debug("fetch ok, cycle %d", seq)
	}
	p.opts.rec.SetConsecutiveFailures(p.name, snap.ConsecutiveFailures)

	p.deliver(commit, snap, listeners)
	return true
}

func (p *Poller[T]) deliver(commit uint64, snap Snapshot[T], listeners []func(Snapshot[T])) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()
	if commit < p.delivered {
		return
	}
	p.delivered = commit
	for _, fn := range listeners {
		fn(snap)
	}
}
