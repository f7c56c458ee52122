// Package metrics exposes feed health and sky computation timings to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spacelight_feed_fetch_total",
			Help: "Total number of feed fetch attempts.",
		},
		[]string{"feed", "result"},
	)

	fetchDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spacelight_feed_fetch_duration_seconds",
			Help:    "Feed fetch duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"feed"},
	)

	consecutiveFailures = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spacelight_feed_consecutive_failures",
			Help: "Consecutive failed fetches per feed; 0 when healthy.",
		},
		[]string{"feed"},
	)

	discardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spacelight_feed_discarded_total",
			Help: "Fetch results dropped because a newer result had landed or the feed stopped.",
		},
		[]string{"feed"},
	)

	skyPassSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spacelight_sky_pass_duration_seconds",
			Help:    "Duration of one sky visibility pass.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2.5},
		},
	)

	observerLocated = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spacelight_observer_located",
			Help: "1 when the sky is computed for a located observer, 0 in geocentric mode.",
		},
	)

	currentKp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spacelight_kp_index",
			Help: "Latest planetary Kp index.",
		},
	)
)

func init() {
	prometheus.MustRegister(fetchTotal)
	prometheus.MustRegister(fetchDurationSeconds)
	prometheus.MustRegister(consecutiveFailures)
	prometheus.MustRegister(discardedTotal)
	prometheus.MustRegister(skyPassSeconds)
	prometheus.MustRegister(observerLocated)
	prometheus.MustRegister(currentKp)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Feeds records poller telemetry. The zero value is ready to use.
type Feeds struct{}

// ObserveFetch records one fetch attempt.
func (Feeds) ObserveFetch(feed string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	fetchTotal.WithLabelValues(feed, result).Inc()
	fetchDurationSeconds.WithLabelValues(feed).Observe(d.Seconds())
}

// SetConsecutiveFailures records the failure streak of a feed.
func (Feeds) SetConsecutiveFailures(feed string, n int) {
	consecutiveFailures.WithLabelValues(feed).Set(float64(n))
}

// IncDiscarded counts a dropped fetch result.
func (Feeds) IncDiscarded(feed string) {
	discardedTotal.WithLabelValues(feed).Inc()
}

// ObserveSkyPass records the duration of a sky computation.
func ObserveSkyPass(d time.Duration) {
	skyPassSeconds.Observe(d.Seconds())
}

// SetObserverLocated records the observer mode.
func SetObserverLocated(located bool) {
	if located {
		observerLocated.Set(1)
	} else {
		observerLocated.Set(0)
	}
}

// SetKp records the latest Kp index.
func SetKp(kp float64) {
	currentKp.Set(kp)
}
