// Package config holds the runtime settings for ls-spacelight and binds
// them to command-line flags and environment variables.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/litescript/ls-spacelight/internal/astro"
	"github.com/litescript/ls-spacelight/internal/location"
	"github.com/litescript/ls-spacelight/internal/sources"
)

// Environment variables that override the observer position.
const (
	EnvLat = "SPACELIGHT_LAT"
	EnvLon = "SPACELIGHT_LON"
)

const (
	minInterval = 1 * time.Second
	maxInterval = 24 * time.Hour
	minSkyEvery = 5 * time.Second
	minWatch    = 5 * time.Second
)

// Intervals are the refresh cadences of each widget.
type Intervals struct {
	Sky      time.Duration
	ISS      time.Duration
	Kp       time.Duration
	News     time.Duration
	Launches time.Duration
	Crew     time.Duration
	TLE      time.Duration
}

// Config holds all runtime settings.
type Config struct {
	Intervals Intervals

	FetchTimeout    time.Duration
	LocationTimeout time.Duration
	Endpoints       sources.Endpoints

	// Location
	Lat, Lon    float64
	HasLocation bool // Lat/Lon were given explicitly
	NoLocation  bool
	IPLookup    bool
	IPLookupURL string

	// Output
	LogLevel    string
	LogFile     string
	MetricsAddr string
	Summary     bool
	JSON        bool
	Watch       time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Intervals: Intervals{
			Sky:      60 * time.Second,
			ISS:      5 * time.Second,
			Kp:       5 * time.Minute,
			News:     5 * time.Minute,
			Launches: time.Hour,
			Crew:     time.Hour,
			TLE:      6 * time.Hour,
		},
		FetchTimeout:    sources.DefaultTimeout,
		LocationTimeout: location.DefaultTimeout,
		Endpoints:       sources.DefaultEndpoints(),
		IPLookup:        true,
		IPLookupURL:     location.DefaultIPLookupURL,
		LogLevel:        "info",
	}
}

// BindFlags registers the command-line flags on fs.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.Func("lat", "Observer latitude in degrees (north positive)", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		c.Lat, c.HasLocation = v, true
		return nil
	})
	fs.Func("lon", "Observer longitude in degrees (east positive)", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		c.Lon, c.HasLocation = v, true
		return nil
	})
	fs.BoolVar(&c.NoLocation, "no-location", c.NoLocation, "Never look up location; use the geocentric view")
	fs.BoolVar(&c.IPLookup, "ip-lookup", c.IPLookup, "Approximate location from the public IP address")
	fs.StringVar(&c.IPLookupURL, "ip-lookup-url", c.IPLookupURL, "IP geolocation endpoint")
	fs.DurationVar(&c.LocationTimeout, "location-timeout", c.LocationTimeout, "Location lookup timeout")

	fs.DurationVar(&c.Intervals.Sky, "sky-every", c.Intervals.Sky, "Sky recompute interval")
	fs.DurationVar(&c.Intervals.ISS, "iss-every", c.Intervals.ISS, "ISS position refresh interval")
	fs.DurationVar(&c.Intervals.Kp, "kp-every", c.Intervals.Kp, "Kp index refresh interval")
	fs.DurationVar(&c.Intervals.News, "news-every", c.Intervals.News, "Headline refresh interval")
	fs.DurationVar(&c.Intervals.Launches, "launches-every", c.Intervals.Launches, "Launch schedule refresh interval")
	fs.DurationVar(&c.Intervals.Crew, "crew-every", c.Intervals.Crew, "Crew roster refresh interval")
	fs.DurationVar(&c.Intervals.TLE, "tle-every", c.Intervals.TLE, "ISS orbital elements refresh interval")
	fs.DurationVar(&c.FetchTimeout, "timeout", c.FetchTimeout, "Per-request HTTP timeout")

	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Write logs to file (TUI mode discards logs otherwise)")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Serve Prometheus metrics on this address (e.g., :9090)")
	fs.BoolVar(&c.Summary, "summary", c.Summary, "Print text summary instead of TUI")
	fs.BoolVar(&c.JSON, "json", c.JSON, "Print JSON snapshot to stdout instead of TUI")
	fs.DurationVar(&c.Watch, "watch", c.Watch, "Repeat headless output at interval (e.g., 30s)")
}

// ApplyEnv fills the observer position from the environment unless it was
// given on the command line.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if c.HasLocation {
		return nil
	}
	latStr, lonStr := getenv(EnvLat), getenv(EnvLon)
	if latStr == "" && lonStr == "" {
		return nil
	}
	if latStr == "" || lonStr == "" {
		return fmt.Errorf("%s and %s must be set together", EnvLat, EnvLon)
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", EnvLat, err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", EnvLon, err)
	}
	c.Lat, c.Lon, c.HasLocation = lat, lon, true
	return nil
}

// Validate checks the location and clamps intervals to sane bounds.
func (c *Config) Validate() error {
	if c.HasLocation {
		if _, err := astro.NewObserver(c.Lat, c.Lon, ""); err != nil {
			return fmt.Errorf("invalid location: %w", err)
		}
	}
	if c.HasLocation && c.NoLocation {
		return errors.New("-no-location conflicts with -lat/-lon")
	}
	if c.Summary && c.JSON {
		return errors.New("-summary and -json are mutually exclusive")
	}

	c.Intervals.Sky = clamp(c.Intervals.Sky, minSkyEvery, maxInterval)
	c.Intervals.ISS = clamp(c.Intervals.ISS, minInterval, maxInterval)
	c.Intervals.Kp = clamp(c.Intervals.Kp, minInterval, maxInterval)
	c.Intervals.News = clamp(c.Intervals.News, minInterval, maxInterval)
	c.Intervals.Launches = clamp(c.Intervals.Launches, minInterval, maxInterval)
	c.Intervals.Crew = clamp(c.Intervals.Crew, minInterval, maxInterval)
	c.Intervals.TLE = clamp(c.Intervals.TLE, minInterval, maxInterval)

	if c.FetchTimeout <= 0 {
		c.FetchTimeout = sources.DefaultTimeout
	}
	if c.LocationTimeout <= 0 {
		c.LocationTimeout = location.DefaultTimeout
	}
	if c.Watch > 0 && c.Watch < minWatch {
		c.Watch = minWatch
	}
	return nil
}

// Headless reports whether output goes to stdout instead of the TUI.
func (c Config) Headless() bool {
	return c.Summary || c.JSON
}

// LocationProvider builds the provider chain for the configured signals.
func (c Config) LocationProvider() location.Provider {
	if c.NoLocation {
		return location.Denied{}
	}
	if c.HasLocation {
		obs, err := astro.NewObserver(c.Lat, c.Lon, "")
		if err != nil {
			return location.Denied{}
		}
		return location.Static{Observer: obs}
	}
	if c.IPLookup {
		return location.NewIPLookup(location.WithURL(c.IPLookupURL))
	}
	return nil
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
