package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stephanfowler/pageview-sparks/internal/chart"
	"github.com/stephanfowler/pageview-sparks/internal/config"
	"github.com/stephanfowler/pageview-sparks/internal/server"
	"github.com/stephanfowler/pageview-sparks/internal/upstream"
)

func TestMustLoadConfig(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantHost   string
		wantPort   int
		wantSource string
	}{
		{
			name:       "DefaultArgs",
			args:       []string{},
			wantHost:   "0.0.0.0",
			wantPort:   3000,
			wantSource: config.SourceHTTP,
		},
		{
			name:       "ExplicitFlags",
			args:       []string{"-host", "127.0.0.1", "-port", "9090", "-source", "sqlite"},
			wantHost:   "127.0.0.1",
			wantPort:   9090,
			wantSource: config.SourceSQLite,
		},
		{
			name:       "PartialFlags",
			args:       []string{"-port", "8081"},
			wantHost:   "0.0.0.0",
			wantPort:   8081,
			wantSource: config.SourceHTTP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "data")
			t.Setenv("SPARKLINE_DATA_DIR", dir)
			cfg := mustLoadConfig(tt.args)

			assert.Equal(t, tt.wantHost, cfg.Host)
			assert.Equal(t, tt.wantPort, cfg.Port)
			assert.Equal(t, tt.wantSource, cfg.Source)
			assert.Equal(t, filepath.Join(dir, "hits.db"), cfg.SQLitePath)

			info, err := os.Stat(dir)
			require.NoError(t, err, "data dir should be created")
			assert.True(t, info.IsDir())
		})
	}
}

func TestSetupLogging(t *testing.T) {
	origOutput := log.StandardLogger().Out
	origLevel := log.GetLevel()
	t.Cleanup(func() {
		log.SetOutput(origOutput)
		log.SetLevel(origLevel)
	})

	var buf bytes.Buffer
	setupLogging(config.Config{LogLevel: "debug"}, &buf)
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	log.Debug("debug-message")
	assert.Contains(t, buf.String(), "debug-message")

	buf.Reset()
	setupLogging(config.Config{LogLevel: "chatty"}, &buf)
	assert.Equal(t, log.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "unknown log level")
}

func TestOpenSource(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "hits.db")
	w, err := upstream.CreateHitsDB(dbPath)
	require.NoError(t, err)
	require.NoError(t, w.WriteSeries(context.Background(), "/uk", chart.RawSeries{
		Name: "Google",
		Data: []chart.RawPoint{{DateTime: 60_000, Count: 3}},
	}))
	require.NoError(t, w.Close())

	tests := []struct {
		name     string
		cfg      config.Config
		wantName string
		wantErr  bool
	}{
		{
			name: "HTTP",
			cfg: config.Config{
				Source:          config.SourceHTTP,
				UpstreamURL:     "http://127.0.0.1:1",
				UpstreamTimeout: time.Second,
			},
			wantName: "http",
		},
		{
			name:     "SQLite",
			cfg:      config.Config{Source: config.SourceSQLite, SQLitePath: dbPath},
			wantName: "sqlite",
		},
		{
			name: "SQLiteMissing",
			cfg: config.Config{
				Source:     config.SourceSQLite,
				SQLitePath: filepath.Join(dir, "missing.db"),
			},
			wantErr: true,
		},
		{
			name:    "Unknown",
			cfg:     config.Config{Source: "ftp"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, closeFn, err := openSource(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer closeFn()
			assert.Equal(t, tt.wantName, source.Name())
		})
	}
}

func TestReloadRenderDefaults(t *testing.T) {
	origOutput := log.StandardLogger().Out
	t.Cleanup(func() { log.SetOutput(origOutput) })
	var buf bytes.Buffer
	log.SetOutput(&buf)

	dir := t.TempDir()
	cfg := config.Config{
		DataDir:      dir,
		WriteTimeout: time.Second,
		Render:       config.DefaultRender(),
	}
	srv := server.New(cfg, upstream.NewHTTPClient("http://127.0.0.1:1", time.Second))

	path := cfg.ConfigPath()
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"render":{"width":120,"graphs":"Google:89a54e"}}`), 0o644))
	reloadRenderDefaults(cfg, srv)

	got := srv.RenderDefaults()
	assert.Equal(t, 120, got.Width)
	assert.Equal(t, "Google:89a54e", got.Graphs)
	assert.Equal(t, config.DefaultRender().Height, got.Height)

	require.NoError(t, os.WriteFile(path, []byte(`{"render":`), 0o644))
	reloadRenderDefaults(cfg, srv)
	assert.Equal(t, 120, srv.RenderDefaults().Width, "broken file keeps previous defaults")
	assert.True(t, strings.Contains(buf.String(), "config reload failed"))

	require.NoError(t, os.WriteFile(path, []byte(`{"render":{"width":0}}`), 0o644))
	reloadRenderDefaults(cfg, srv)
	assert.Equal(t, 120, srv.RenderDefaults().Width, "unusable defaults are not installed")
}

func TestLoadConfigRejectsBadRenderDefaults(t *testing.T) {
	tests := []struct {
		name   string
		render string
	}{
		{"ZeroWidth", `{"width":0}`},
		{"BrokenGraphs", `{"graphs":"Google"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv("SPARKLINE_DATA_DIR", dir)
			require.NoError(t, os.WriteFile(
				filepath.Join(dir, "config.json"),
				[]byte(`{"render":`+tt.render+`}`), 0o644,
			))

			_, err := loadConfig(nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "render defaults")
		})
	}

	t.Setenv("SPARKLINE_DATA_DIR", t.TempDir())
	_, err := loadConfig(nil)
	assert.NoError(t, err)
}

func TestConfigWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		DataDir:      dir,
		WriteTimeout: time.Second,
		Render:       config.DefaultRender(),
	}
	srv := server.New(cfg, upstream.NewHTTPClient("http://127.0.0.1:1", time.Second))

	stop := startConfigWatcher(cfg, srv)
	defer stop()

	require.NoError(t, os.WriteFile(cfg.ConfigPath(),
		[]byte(`{"render":{"height":60}}`), 0o644))

	assert.Eventually(t, func() bool {
		return srv.RenderDefaults().Height == 60
	}, 5*time.Second, 20*time.Millisecond)
}
