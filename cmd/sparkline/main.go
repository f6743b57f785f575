package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/stephanfowler/pageview-sparks/internal/config"
	"github.com/stephanfowler/pageview-sparks/internal/options"
	"github.com/stephanfowler/pageview-sparks/internal/server"
	"github.com/stephanfowler/pageview-sparks/internal/upstream"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const (
	configDebounce  = 250 * time.Millisecond
	shutdownTimeout = 10 * time.Second
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("sparkline %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	runServe(os.Args[1:])
}

func printUsage() {
	fmt.Printf(`sparkline %s - pageview sparkline image server

Fetches per-minute hit breakdowns for a page and renders them as
a small PNG line chart, one line per referrer group.

Usage:
  sparkline [flags]          Start the server (default command)
  sparkline serve [flags]    Start the server (explicit)
  sparkline version          Show version information
  sparkline help             Show this help

Server flags:
  -host string        Host to bind to (default "0.0.0.0")
  -port int           Port to listen on (default 3000)
  -upstream string    Analytics API base URL
  -source string      Hit data source: http or sqlite (default "http")
  -sqlite string      Hits database path for the sqlite source
  -log-level string   Log level (default "info")

Environment variables:
  SPARKLINE_DATA_DIR      Data directory (config.json, hits.db)
  SPARKLINE_UPSTREAM_URL  Analytics API base URL
  SPARKLINE_SOURCE        Hit data source
  SPARKLINE_SQLITE_PATH   Hits database path
  SPARKLINE_LOG_LEVEL     Log level

Render defaults in the "render" section of config.json are
reloaded while the server runs.
`, version)
}

func runServe(args []string) {
	cfg := mustLoadConfig(args)
	setupLogging(cfg, os.Stderr)

	source, closeSource := mustOpenSource(cfg)
	defer closeSource()

	srv := server.New(cfg, source,
		server.WithVersion(server.VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		}),
	)

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGTERM, syscall.SIGINT,
	)
	defer stop()

	stopWatcher := startConfigWatcher(cfg, srv)
	defer stopWatcher()

	log.WithFields(log.Fields{
		"version": version,
		"source":  source.Name(),
	}).Infof("sparkline listening on %s:%d", cfg.Host, cfg.Port)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func mustLoadConfig(args []string) config.Config {
	cfg, err := loadConfig(args)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}
	return cfg
}

// loadConfig parses serve flags and loads the layered config,
// including a check that the render defaults can draw a chart.
func loadConfig(args []string) (config.Config, error) {
	fs := flag.NewFlagSet("sparkline", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			"Usage: sparkline [serve] [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	config.RegisterServeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, fmt.Errorf("parsing flags: %w", err)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return cfg, err
	}
	if err := options.ValidateDefaults(cfg.Render); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setupLogging applies the configured level. An unknown level
// falls back to info with a warning.
func setupLogging(cfg config.Config, out io.Writer) {
	log.SetOutput(out)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.SetLevel(log.InfoLevel)
		log.WithError(err).Warn("unknown log level, using info")
		return
	}
	log.SetLevel(level)
}

// openSource builds the configured hit source and a func that
// releases it.
func openSource(cfg config.Config) (upstream.Source, func(), error) {
	switch cfg.Source {
	case config.SourceSQLite:
		store, err := upstream.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case config.SourceHTTP:
		client := upstream.NewHTTPClient(
			cfg.UpstreamURL, cfg.UpstreamTimeout,
			upstream.WithRateLimit(cfg.UpstreamRPS),
			upstream.WithUserAgent("pageview-sparks/"+version),
		)
		return client, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown source %q", cfg.Source)
}

func mustOpenSource(cfg config.Config) (upstream.Source, func()) {
	source, closeFn, err := openSource(cfg)
	if err != nil {
		log.Fatalf("opening %s source: %v", cfg.Source, err)
	}
	return source, closeFn
}

// reloadRenderDefaults re-reads the render section of the config
// file and installs it on srv. A broken file, or defaults that
// could not draw a chart, keep the previous defaults.
func reloadRenderDefaults(cfg config.Config, srv *server.Server) {
	d, err := config.LoadRenderDefaults(
		cfg.ConfigPath(), config.DefaultRender(),
	)
	if err == nil {
		err = options.ValidateDefaults(d)
	}
	if err != nil {
		log.WithError(err).Warn("config reload failed, keeping previous render defaults")
		return
	}
	srv.SetRenderDefaults(d)
	log.WithField("graphs", d.Graphs).Info("render defaults reloaded")
}

func startConfigWatcher(
	cfg config.Config, srv *server.Server,
) func() {
	watcher, err := config.NewWatcher(
		cfg.ConfigPath(), configDebounce,
		func() { reloadRenderDefaults(cfg, srv) },
	)
	if err != nil {
		log.WithError(err).Warn("config watcher unavailable")
		return func() {}
	}
	watcher.Start()
	return watcher.Stop
}
