// Command ls-spacelight is a terminal dashboard of what is up in the sky and in space right now.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-spacelight/internal/config"
	"github.com/litescript/ls-spacelight/internal/dashboard"
	"github.com/litescript/ls-spacelight/internal/logging"
	"github.com/litescript/ls-spacelight/internal/metrics"
	"github.com/litescript/ls-spacelight/internal/sources"
	"github.com/litescript/ls-spacelight/internal/ui"
	"github.com/litescript/ls-spacelight/internal/version"
)

func main() {
	cfg := config.DefaultConfig()
	cfg.BindFlags(flag.CommandLine)
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.UserAgent())
		return
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// A TUI needs a terminal; fall back to the text summary when piped.
	if !cfg.Headless() && !term.IsTerminal(int(os.Stdout.Fd())) {
		cfg.Summary = true
	}

	logger, closeLog, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if cfg.MetricsAddr != "" {
		srv := startMetrics(cfg.MetricsAddr, logger.Named("metrics"))
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	client := sources.NewClient(
		sources.WithEndpoints(cfg.Endpoints),
		sources.WithTimeout(cfg.FetchTimeout),
		sources.WithLogger(logger.Named("sources")),
	)

	if cfg.Headless() {
		agg := dashboard.New(cfg, client, metrics.Feeds{}, dashboard.WithLogger(logger))
		if err := runHeadless(ctx, cfg, agg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			closeLog()
			os.Exit(1)
		}
		return
	}

	if err := runTUI(ctx, cfg, client, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

// setupLogging writes to -log-file when given. Without one, the TUI
// discards logs so they cannot corrupt the screen and headless modes log
// to stderr.
func setupLogging(cfg config.Config) (*logging.Logger, func(), error) {
	level := logging.ParseLevel(cfg.LogLevel)

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logger := logging.New(level)
		logger.SetOutput(f)
		return logger, func() { _ = f.Close() }, nil
	}

	if !cfg.Headless() {
		return logging.Discard(), func() {}, nil
	}
	return logging.New(level), func() {}, nil
}

func startMetrics(addr string, logger *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server: %v", err)
		}
	}()
	return srv
}

func runTUI(ctx context.Context, cfg config.Config, client *sources.Client, logger *logging.Logger) error {
	var (
		p   *tea.Program
		agg *dashboard.Aggregator
	)
	agg = dashboard.New(cfg, client, metrics.Feeds{},
		dashboard.WithLogger(logger),
		dashboard.WithNotify(func() {
			p.Send(ui.SnapshotMsg{Snapshot: agg.Snapshot()})
		}),
	)

	p = tea.NewProgram(ui.New(agg), tea.WithAltScreen(), tea.WithContext(ctx))

	agg.Start(ctx)
	defer agg.Stop()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// runHeadless prints one snapshot, or one per -watch interval until canceled.
func runHeadless(ctx context.Context, cfg config.Config, agg *dashboard.Aggregator) error {
	outputOnce := func() error {
		snap, err := agg.RefreshOnce(ctx)
		if err != nil {
			return err
		}
		if cfg.JSON {
			return snap.Export().WriteJSON(os.Stdout)
		}
		dashboard.WriteSummary(os.Stdout, snap, time.Local)
		return nil
	}

	// Single run
	if cfg.Watch == 0 {
		return outputOnce()
	}

	// Watch mode: repeat at interval
	if err := outputOnce(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	ticker := time.NewTicker(cfg.Watch)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !cfg.JSON {
				fmt.Println() // Blank line between summaries
			}
			if err := outputOnce(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}
}
