package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/todox/internal/todo"
)

// Add inserts a new undone item.
// The text is validated first; invalid text never reaches the database.
func (s *Store) Add(ctx context.Context, text string) (todo.Item, error) {
	text, err := todo.ValidateText(text)
	if err != nil {
		return todo.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now().UTC().Truncate(time.Millisecond)
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (text, done, created_at)
		VALUES (?, 0, ?)
	`, text, createdAt.UnixMilli())
	if err != nil {
		return todo.Item{}, todo.StorageError("insert todo", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return todo.Item{}, todo.StorageError("insert todo: last insert id", err)
	}

	return todo.Item{ID: id, Text: text, CreatedAt: createdAt}, nil
}

// ToggleDone flips the done flag of one item.
func (s *Store) ToggleDone(ctx context.Context, id int64) (todo.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateAndRead(ctx, id, `UPDATE todos SET done = NOT done WHERE id = ?`, id)
}

// SetText replaces the text and done flag of one item in a single UPDATE.
func (s *Store) SetText(ctx context.Context, id int64, text string, done bool) (todo.Item, error) {
	text, err := todo.ValidateText(text)
	if err != nil {
		return todo.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateAndRead(ctx, id, `UPDATE todos SET text = ?, done = ? WHERE id = ?`, text, done, id)
}

// updateAndRead runs an UPDATE touching exactly one row and returns the row
// as stored afterwards. Both statements share a transaction.
func (s *Store) updateAndRead(ctx context.Context, id int64, query string, args ...any) (todo.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return todo.Item{}, todo.StorageError("update todo: begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return todo.Item{}, todo.StorageError("update todo", err)
	}
	if err := requireAffected(result, id); err != nil {
		return todo.Item{}, err
	}

	it, err := getItem(ctx, tx, id)
	if err != nil {
		return todo.Item{}, err
	}

	if err := tx.Commit(); err != nil {
		return todo.Item{}, todo.StorageError("update todo: commit", err)
	}
	return it, nil
}

// Delete removes one item.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return todo.StorageError("delete todo", err)
	}
	return requireAffected(result, id)
}

// DeleteAllDone removes every done item and reports how many rows went.
// Zero rows affected is a successful no-op.
func (s *Store) DeleteAllDone(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE done = 1`)
	if err != nil {
		return 0, todo.StorageError("delete completed", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, todo.StorageError("delete completed: rows affected", err)
	}
	return n, nil
}

// requireAffected maps "no rows affected" to todo.ErrNotFound.
func requireAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return todo.StorageError(fmt.Sprintf("rows affected for id %d", id), err)
	}
	if n == 0 {
		return todo.NotFound(id)
	}
	return nil
}
