// Package config loads the todox configuration.
//
// A YAML file is decoded over Default, then the caller applies flag
// overrides, then Validate checks the result against an embedded CUE
// schema. Unknown YAML keys are rejected.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// ErrInvalid marks a configuration rejected by the schema.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete server configuration.
type Config struct {
	Listen               string        `json:"listen" yaml:"listen"`
	StaticDir            string        `json:"static_dir" yaml:"static_dir"`
	Storage              StorageConfig `json:"storage" yaml:"storage"`
	Log                  LogConfig     `json:"log" yaml:"log"`
	Metrics              bool          `json:"metrics" yaml:"metrics"`
	TraceExporter        string        `json:"trace_exporter" yaml:"trace_exporter"`
	ShutdownGraceSeconds int           `json:"shutdown_grace_seconds" yaml:"shutdown_grace_seconds"`
	GinMode              string        `json:"gin_mode" yaml:"gin_mode"`
}

// StorageConfig selects and locates the backend.
type StorageConfig struct {
	Backend    string `json:"backend" yaml:"backend"` // memory | sqlite | badger
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`
	BadgerDir  string `json:"badger_dir" yaml:"badger_dir"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug | info | warn | error
	Format string `json:"format" yaml:"format"` // text | json
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:    "127.0.0.1:3000",
		StaticDir: "public",
		Storage: StorageConfig{
			Backend:    "sqlite",
			SQLitePath: "db.sqlite",
			BadgerDir:  "data",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics:              true,
		TraceExporter:        "none",
		ShutdownGraceSeconds: 5,
		GinMode:              "release",
	}
}

// Load reads path and decodes it over the defaults. An empty path yields
// the defaults. The result is not validated; call Validate after applying
// overrides.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Keys absent from data keep their
// default values.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks c against the embedded schema. The error wraps
// ErrInvalid and lists every violation.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := ctx.Encode(c)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w:\n%s", ErrInvalid, strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}

// ShutdownGrace is the graceful shutdown bound.
func (c Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceSeconds) * time.Second
}

// SlogLevel maps Log.Level to a slog level. Unknown names map to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger builds the slog logger described by Log, writing to w.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
