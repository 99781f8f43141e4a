// Package store selects and opens a todo.Store backend.
//
// Three backends share one contract (see storetest):
//   - memory: process-local, lost on restart
//   - sqlite: single-file relational store (default)
//   - badger: embedded key-value store in a directory
package store

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/todox/internal/store/kv"
	"github.com/roach88/todox/internal/store/memory"
	"github.com/roach88/todox/internal/store/sqlite"
	"github.com/roach88/todox/internal/todo"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendMemory, BackendSQLite, BackendBadger}

// Config selects a backend and its location.
type Config struct {
	Backend    string
	SQLitePath string
	BadgerDir  string

	// Logger receives backend diagnostics. Optional.
	Logger *slog.Logger
}

// Open returns the configured backend.
func Open(cfg Config) (todo.Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return memory.New(nil), nil
	case BackendSQLite, "":
		path := cfg.SQLitePath
		if path == "" {
			path = "db.sqlite"
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendBadger:
		kvCfg := kv.DefaultConfig(cfg.BadgerDir)
		kvCfg.Logger = cfg.Logger
		s, err := kv.Open(kvCfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q: must be one of %v", cfg.Backend, Backends)
	}
}

// IsValidBackend reports whether name is a known backend.
func IsValidBackend(name string) bool {
	return slices.Contains(Backends, name)
}
