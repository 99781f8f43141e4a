package config

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Full(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "full.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "./web", cfg.StaticDir)
	assert.Equal(t, "badger", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/todox", cfg.Storage.BadgerDir)
	assert.Equal(t, "db.sqlite", cfg.Storage.SQLitePath, "unset keys keep defaults")
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.False(t, cfg.Metrics)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.Equal(t, 10*time.Second, cfg.ShutdownGrace())
	assert.Equal(t, "debug", cfg.GinMode)
}

func TestLoad_Partial(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "partial.yaml"))
	require.NoError(t, err)

	want := Default()
	want.Storage.Backend = "memory"
	assert.Equal(t, want, cfg)
}

func TestLoad_ExampleMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "todox.example.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse([]byte("listen: \":1\"\ncolour: blue\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestParse_WrongType(t *testing.T) {
	_, err := Parse([]byte("metrics: [1, 2]\n"))
	require.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "postgres" }, "storage.backend"},
		{"sqlite without path", func(c *Config) { c.Storage.SQLitePath = "" }, "storage.sqlite_path"},
		{"badger without dir", func(c *Config) {
			c.Storage.Backend = "badger"
			c.Storage.BadgerDir = ""
		}, "storage.badger_dir"},
		{"listen without port", func(c *Config) { c.Listen = "localhost" }, "listen"},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"trace exporter", func(c *Config) { c.TraceExporter = "jaeger" }, "trace_exporter"},
		{"negative grace", func(c *Config) { c.ShutdownGraceSeconds = -1 }, "shutdown_grace_seconds"},
		{"gin mode", func(c *Config) { c.GinMode = "prod" }, "gin_mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestValidate_ListenAddresses(t *testing.T) {
	tests := []struct {
		listen string
		valid  bool
	}{
		{"127.0.0.1:3000", true},
		{":8080", true},
		{"localhost:0", true},
		{"[::1]:3000", true},
		{"[fe80::1%eth0]:80", true},
		{"::1:3000", false},
		{"[::1]", false},
		{"localhost", false},
	}

	for _, tt := range tests {
		t.Run(tt.listen, func(t *testing.T) {
			cfg := Default()
			cfg.Listen = tt.listen
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestValidate_MemoryNeedsNoPaths(t *testing.T) {
	cfg := Default()
	cfg.Storage = StorageConfig{Backend: "memory"}
	assert.NoError(t, cfg.Validate())
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for name, want := range tests {
		cfg := Default()
		cfg.Log.Level = name
		assert.Equal(t, want, cfg.SlogLevel(), name)
	}
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Format = "json"
	cfg.NewLogger(&buf).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	cfg.Log.Format = "text"
	cfg.Log.Level = "warn"
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}
