package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/roach88/todox/internal/todo"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// List returns items newest-first, skipping done items when hideDone is set.
//
// Returns an empty slice (not nil) if no items match.
func (s *Store) List(ctx context.Context, hideDone bool) ([]todo.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, text, done, created_at
		FROM todos
		ORDER BY created_at DESC, id DESC
	`
	if hideDone {
		query = `
		SELECT id, text, done, created_at
		FROM todos
		WHERE done = 0
		ORDER BY created_at DESC, id DESC
	`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, todo.StorageError("query todos", err)
	}
	defer rows.Close()

	items := []todo.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, todo.StorageError("scan todo", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, todo.StorageError("iterate todos", err)
	}

	return items, nil
}

// Get retrieves a single item by id.
func (s *Store) Get(ctx context.Context, id int64) (todo.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getItem(ctx, s.db, id)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getItem(ctx context.Context, q querier, id int64) (todo.Item, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, text, done, created_at
		FROM todos
		WHERE id = ?
	`, id)

	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return todo.Item{}, todo.NotFound(id)
	}
	if err != nil {
		return todo.Item{}, todo.StorageError("read todo", err)
	}
	return it, nil
}

func scanItem(row rowScanner) (todo.Item, error) {
	var it todo.Item
	var createdAt int64
	if err := row.Scan(&it.ID, &it.Text, &it.Done, &createdAt); err != nil {
		return todo.Item{}, err
	}
	it.CreatedAt = time.UnixMilli(createdAt).UTC()
	return it, nil
}
