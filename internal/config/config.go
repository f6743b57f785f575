package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Source names accepted for Config.Source.
const (
	SourceHTTP   = "http"
	SourceSQLite = "sqlite"
)

const configFileName = "config.json"

// RenderDefaults are the chart option values used when a request
// does not set them. A RenderDefaults value is never mutated once
// built; a reload produces a new value.
type RenderDefaults struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	HotLevel    float64 `json:"hot_level"`
	HotPeriod   int     `json:"hot_period"`
	Smoothing   int     `json:"smoothing"`
	Alpha       float64 `json:"alpha"`
	ShowStats   bool    `json:"show_stats"`
	ShowHours   bool    `json:"show_hours"`
	StatsHeight int     `json:"stats_height"`
	Graphs      string  `json:"graphs"`
}

// Config holds all application configuration.
type Config struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	DataDir         string        `json:"data_dir"`
	Source          string        `json:"source"`
	UpstreamURL     string        `json:"upstream_url"`
	UpstreamTimeout time.Duration `json:"-"`
	UpstreamRPS     float64       `json:"upstream_rps"`
	SQLitePath      string        `json:"sqlite_path"`
	CacheMaxAge     int           `json:"cache_max_age"`
	LogLevel        string        `json:"log_level"`
	WriteTimeout    time.Duration `json:"-"`

	Render RenderDefaults `json:"render"`
}

// DefaultRender returns the built-in chart defaults.
func DefaultRender() RenderDefaults {
	return RenderDefaults{
		Width:       100,
		Height:      40,
		HotLevel:    50,
		HotPeriod:   5,
		Smoothing:   1,
		Alpha:       1,
		ShowStats:   true,
		ShowHours:   true,
		StatsHeight: 11,
		Graphs:      "Other:d61d00:other Google:89a54e Guardian:4572a7",
	}
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	dataDir := filepath.Join(home, ".sparkline")
	return Config{
		Host:            "0.0.0.0",
		Port:            3000,
		DataDir:         dataDir,
		Source:          SourceHTTP,
		UpstreamURL:     "http://api.ophan.co.uk",
		UpstreamTimeout: 5 * time.Second,
		SQLitePath:      filepath.Join(dataDir, "hits.db"),
		CacheMaxAge:     30,
		LogLevel:        "info",
		WriteTimeout:    30 * time.Second,
		Render:          DefaultRender(),
	}, nil
}

// Load builds a Config by layering: defaults < config file < env < flags.
// The provided FlagSet must already be parsed by the caller.
// Only flags that were explicitly set override the lower layers.
func Load(fs *flag.FlagSet) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("SPARKLINE_DATA_DIR"); v != "" {
		cfg.DataDir = v
		cfg.SQLitePath = filepath.Join(v, "hits.db")
	}
	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	cfg.loadEnv()
	applyFlags(&cfg, fs)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ConfigPath returns the location of the JSON config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.DataDir, configFileName)
}

// fileConfig mirrors the config file. Pointer and string fields
// distinguish "absent" from zero values.
type fileConfig struct {
	Host            string          `json:"host"`
	Port            int             `json:"port"`
	Source          string          `json:"source"`
	UpstreamURL     string          `json:"upstream_url"`
	UpstreamTimeout string          `json:"upstream_timeout"`
	UpstreamRPS     *float64        `json:"upstream_rps"`
	SQLitePath      string          `json:"sqlite_path"`
	CacheMaxAge     *int            `json:"cache_max_age"`
	LogLevel        string          `json:"log_level"`
	Render          json.RawMessage `json:"render"`
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.ConfigPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file fileConfig
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if file.Host != "" {
		c.Host = file.Host
	}
	if file.Port != 0 {
		c.Port = file.Port
	}
	if file.Source != "" {
		c.Source = file.Source
	}
	if file.UpstreamURL != "" {
		c.UpstreamURL = file.UpstreamURL
	}
	if file.UpstreamTimeout != "" {
		d, err := time.ParseDuration(file.UpstreamTimeout)
		if err != nil {
			return fmt.Errorf("parsing upstream_timeout: %w", err)
		}
		c.UpstreamTimeout = d
	}
	if file.UpstreamRPS != nil {
		c.UpstreamRPS = *file.UpstreamRPS
	}
	if file.SQLitePath != "" {
		c.SQLitePath = file.SQLitePath
	}
	if file.CacheMaxAge != nil {
		c.CacheMaxAge = *file.CacheMaxAge
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	if len(file.Render) > 0 {
		// Unmarshal onto the current values so the file only
		// needs to name the settings it changes.
		if err := json.Unmarshal(file.Render, &c.Render); err != nil {
			return fmt.Errorf("parsing render defaults: %w", err)
		}
	}
	return nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv("SPARKLINE_UPSTREAM_URL"); v != "" {
		c.UpstreamURL = v
	}
	if v := os.Getenv("SPARKLINE_SOURCE"); v != "" {
		c.Source = v
	}
	if v := os.Getenv("SPARKLINE_SQLITE_PATH"); v != "" {
		c.SQLitePath = v
	}
	if v := os.Getenv("SPARKLINE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceHTTP:
		if c.UpstreamURL == "" {
			return fmt.Errorf("upstream URL is required for source %q", c.Source)
		}
	case SourceSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for source %q", c.Source)
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}
	if c.UpstreamRPS < 0 {
		return fmt.Errorf("upstream_rps must not be negative")
	}
	if c.CacheMaxAge < 0 {
		return fmt.Errorf("cache_max_age must not be negative")
	}
	return nil
}

// LoadRenderDefaults re-reads only the render section of the
// config file at path, layered over base. A missing file or a
// file without a render section yields base.
func LoadRenderDefaults(
	path string, base RenderDefaults,
) (RenderDefaults, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return base, err
	}

	var file struct {
		Render json.RawMessage `json:"render"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return base, fmt.Errorf("parsing config: %w", err)
	}
	out := base
	if len(file.Render) > 0 {
		if err := json.Unmarshal(file.Render, &out); err != nil {
			return base, fmt.Errorf("parsing render defaults: %w", err)
		}
	}
	return out, nil
}

// RegisterServeFlags registers serve-command flags on fs.
// The caller must call fs.Parse before passing fs to Load.
func RegisterServeFlags(fs *flag.FlagSet) {
	fs.String("host", "0.0.0.0", "Host to bind to")
	fs.Int("port", 3000, "Port to listen on")
	fs.String("upstream", "", "Analytics API base URL")
	fs.String("source", SourceHTTP, "Hit data source: http or sqlite")
	fs.String("sqlite", "", "Hits database path for the sqlite source")
	fs.String("log-level", "info", "Log level")
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *flag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = f.Value.String()
		case "port":
			// flag already validated the int; ignore parse error
			cfg.Port, _ = strconv.Atoi(f.Value.String())
		case "upstream":
			cfg.UpstreamURL = f.Value.String()
		case "source":
			cfg.Source = f.Value.String()
		case "sqlite":
			cfg.SQLitePath = f.Value.String()
		case "log-level":
			cfg.LogLevel = f.Value.String()
		}
	})
}
