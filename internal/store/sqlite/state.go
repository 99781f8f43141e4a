package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roach88/todox/internal/todo"
)

// Preferences returns the stored preferences, seeding the default row on
// first use.
func (s *Store) Preferences(ctx context.Context) (todo.Preferences, error) {
	s.mu.RLock()
	data, err := readState(ctx, s.db)
	s.mu.RUnlock()

	switch {
	case err == nil:
		return unmarshalPreferences(data), nil
	case errors.Is(err, sql.ErrNoRows):
		return s.seedPreferences(ctx)
	default:
		return todo.Preferences{}, todo.StorageError("read preferences", err)
	}
}

// seedPreferences inserts the default row unless a concurrent writer got
// there first, then returns whatever is stored.
func (s *Store) seedPreferences(ctx context.Context) (todo.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := marshalPreferences(todo.Preferences{})
	if err != nil {
		return todo.Preferences{}, todo.StorageError("seed preferences", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO state (id, data)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, todo.PreferencesKey, data); err != nil {
		return todo.Preferences{}, todo.StorageError("seed preferences", err)
	}

	stored, err := readState(ctx, s.db)
	if err != nil {
		return todo.Preferences{}, todo.StorageError("read seeded preferences", err)
	}
	return unmarshalPreferences(stored), nil
}

// SetPreferences upserts the preferences row.
func (s *Store) SetPreferences(ctx context.Context, p todo.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeState(ctx, s.db, p)
}

// ToggleHideDone flips HideDone inside one transaction.
func (s *Store) ToggleHideDone(ctx context.Context) (todo.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return todo.Preferences{}, todo.StorageError("toggle preferences: begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	var p todo.Preferences
	data, err := readState(ctx, tx)
	switch {
	case err == nil:
		p = unmarshalPreferences(data)
	case errors.Is(err, sql.ErrNoRows):
		// Missing row behaves like the defaults.
	default:
		return todo.Preferences{}, todo.StorageError("toggle preferences: read", err)
	}

	p.HideDone = !p.HideDone
	if err := writeState(ctx, tx, p); err != nil {
		return todo.Preferences{}, err
	}

	if err := tx.Commit(); err != nil {
		return todo.Preferences{}, todo.StorageError("toggle preferences: commit", err)
	}
	return p, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func readState(ctx context.Context, q querier) (string, error) {
	var data string
	err := q.QueryRowContext(ctx, `SELECT data FROM state WHERE id = ?`, todo.PreferencesKey).Scan(&data)
	return data, err
}

func writeState(ctx context.Context, e execer, p todo.Preferences) error {
	data, err := marshalPreferences(p)
	if err != nil {
		return todo.StorageError("write preferences", err)
	}

	_, err = e.ExecContext(ctx, `
		INSERT INTO state (id, data)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, todo.PreferencesKey, data)
	return todo.StorageError("write preferences", err)
}
