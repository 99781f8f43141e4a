// Package kv provides a todo.Store on the Badger embedded key-value engine.
//
// Layout:
//   - todo/<8-byte big-endian id> -> JSON todo.Item
//   - state/<todo.PreferencesKey> -> JSON todo.Preferences
//   - seq/todo                    -> Badger sequence handing out ids
//
// Because ids are big-endian and monotonic, a reverse prefix scan yields
// items newest-first without a separate index.
package kv

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/roach88/todox/internal/todo"
)

var (
	itemPrefix = []byte("todo/")
	prefsKey   = []byte("state/" + todo.PreferencesKey)
	seqKey     = []byte("seq/todo")
)

// seqBandwidth is how many ids the sequence leases per disk write.
const seqBandwidth = 64

// Config configures the Badger database.
type Config struct {
	// Path is the directory for Badger files. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM. Useful for testing.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives Badger's internal logs. Nil disables them.
	Logger *slog.Logger
}

// DefaultConfig returns a durable on-disk configuration rooted at path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns a configuration suitable for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// Store is the Badger implementation of todo.Store.
type Store struct {
	mu  sync.RWMutex
	db  *badger.DB
	seq *badger.Sequence
	now func() time.Time
}

var _ todo.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// badgerLogger adapts slog to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens (or creates) the database described by cfg.
func Open(cfg Config, opts ...Option) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var bopts badger.Options
	if cfg.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		bopts = badger.DefaultOptions(cfg.Path)
	}

	bopts = bopts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		bopts = bopts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	seq, err := db.GetSequence(seqKey, seqBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open id sequence: %w", err)
	}

	s := &Store{db: db, seq: seq, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the leased ids and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.seq != nil {
		errs = append(errs, s.seq.Release())
		s.seq = nil
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
		s.db = nil
	}
	return errors.Join(errs...)
}

func itemKey(id int64) []byte {
	key := make([]byte, len(itemPrefix)+8)
	copy(key, itemPrefix)
	binary.BigEndian.PutUint64(key[len(itemPrefix):], uint64(id))
	return key
}

func (s *Store) Add(ctx context.Context, text string) (todo.Item, error) {
	text, err := todo.ValidateText(text)
	if err != nil {
		return todo.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.seq.Next()
	if err != nil {
		return todo.Item{}, todo.StorageError("next id", err)
	}

	// Sequences start at zero; ids start at one.
	it := todo.Item{ID: int64(n) + 1, Text: text, CreatedAt: s.now().UTC()}
	err = s.db.Update(func(txn *badger.Txn) error {
		return putItem(txn, it)
	})
	if err != nil {
		return todo.Item{}, todo.StorageError("insert todo", err)
	}
	return it, nil
}

func (s *Store) List(ctx context.Context, hideDone bool) ([]todo.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []todo.Item{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scanItems(txn, func(it todo.Item) error {
			if it.Visible(hideDone) {
				items = append(items, it)
			}
			return nil
		})
	})
	if err != nil {
		return nil, todo.StorageError("scan todos", err)
	}
	return items, nil
}

func (s *Store) Get(ctx context.Context, id int64) (todo.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var it todo.Item
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		it, err = getItem(txn, id)
		return err
	})
	return it, classify("read todo", err)
}

func (s *Store) ToggleDone(ctx context.Context, id int64) (todo.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var it todo.Item
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		if it, err = getItem(txn, id); err != nil {
			return err
		}
		it.Done = !it.Done
		return putItem(txn, it)
	})
	return it, classify("toggle todo", err)
}

func (s *Store) SetText(ctx context.Context, id int64, text string, done bool) (todo.Item, error) {
	text, err := todo.ValidateText(text)
	if err != nil {
		return todo.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var it todo.Item
	err = s.db.Update(func(txn *badger.Txn) error {
		var err error
		if it, err = getItem(txn, id); err != nil {
			return err
		}
		it.Text = text
		it.Done = done
		return putItem(txn, it)
	})
	return it, classify("update todo", err)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := getItem(txn, id); err != nil {
			return err
		}
		return txn.Delete(itemKey(id))
	})
	return classify("delete todo", err)
}

func (s *Store) DeleteAllDone(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	err := s.db.Update(func(txn *badger.Txn) error {
		var doomed [][]byte
		err := scanItems(txn, func(it todo.Item) error {
			if it.Done {
				doomed = append(doomed, itemKey(it.ID))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, key := range doomed {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		removed = int64(len(doomed))
		return nil
	})
	if err != nil {
		return 0, todo.StorageError("delete completed", err)
	}
	return removed, nil
}

func (s *Store) Preferences(ctx context.Context) (todo.Preferences, error) {
	s.mu.RLock()
	var (
		p     todo.Preferences
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		p, found, err = getPreferences(txn)
		return err
	})
	s.mu.RUnlock()

	if err != nil {
		return todo.Preferences{}, todo.StorageError("read preferences", err)
	}
	if found {
		return p, nil
	}
	return s.seedPreferences()
}

// seedPreferences writes the defaults unless another writer already did.
func (s *Store) seedPreferences() (todo.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p todo.Preferences
	err := s.db.Update(func(txn *badger.Txn) error {
		stored, found, err := getPreferences(txn)
		if err != nil {
			return err
		}
		if found {
			p = stored
			return nil
		}
		return putPreferences(txn, p)
	})
	if err != nil {
		return todo.Preferences{}, todo.StorageError("seed preferences", err)
	}
	return p, nil
}

func (s *Store) SetPreferences(ctx context.Context, p todo.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		return putPreferences(txn, p)
	})
	return todo.StorageError("write preferences", err)
}

func (s *Store) ToggleHideDone(ctx context.Context) (todo.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p todo.Preferences
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		if p, _, err = getPreferences(txn); err != nil {
			return err
		}
		p.HideDone = !p.HideDone
		return putPreferences(txn, p)
	})
	if err != nil {
		return todo.Preferences{}, todo.StorageError("toggle preferences", err)
	}
	return p, nil
}

// classify passes todo sentinels through and wraps everything else as a
// storage failure.
func classify(op string, err error) error {
	if err == nil || errors.Is(err, todo.ErrNotFound) {
		return err
	}
	return todo.StorageError(op, err)
}

func getItem(txn *badger.Txn, id int64) (todo.Item, error) {
	entry, err := txn.Get(itemKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return todo.Item{}, todo.NotFound(id)
	}
	if err != nil {
		return todo.Item{}, err
	}

	var it todo.Item
	err = entry.Value(func(val []byte) error {
		return json.Unmarshal(val, &it)
	})
	return it, err
}

func putItem(txn *badger.Txn, it todo.Item) error {
	data, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("marshal todo %d: %w", it.ID, err)
	}
	return txn.Set(itemKey(it.ID), data)
}

// scanItems visits every item newest-first.
func scanItems(txn *badger.Txn, fn func(todo.Item) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.Prefix = itemPrefix

	iter := txn.NewIterator(opts)
	defer iter.Close()

	// Reverse iteration seeks to the last key at or before the seek key.
	seek := append(append([]byte{}, itemPrefix...), 0xFF)
	for iter.Seek(seek); iter.ValidForPrefix(itemPrefix); iter.Next() {
		var it todo.Item
		err := iter.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &it)
		})
		if err != nil {
			return fmt.Errorf("decode %q: %w", iter.Item().Key(), err)
		}
		if err := fn(it); err != nil {
			return err
		}
	}
	return nil
}

// getPreferences reads the preferences entry. An undecodable value yields
// defaults with found=true so it is not re-seeded over.
func getPreferences(txn *badger.Txn) (todo.Preferences, bool, error) {
	entry, err := txn.Get(prefsKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return todo.Preferences{}, false, nil
	}
	if err != nil {
		return todo.Preferences{}, false, err
	}

	var p todo.Preferences
	err = entry.Value(func(val []byte) error {
		if json.Unmarshal(val, &p) != nil {
			p = todo.Preferences{}
		}
		return nil
	})
	return p, true, err
}

func putPreferences(txn *badger.Txn, p todo.Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	return txn.Set(prefsKey, data)
}
