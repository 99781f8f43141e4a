package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/todox/internal/store/storetest"
	"github.com/roach88/todox/internal/testutil"
	"github.com/roach88/todox/internal/todo"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) todo.Store {
		return createTestStore(t)
	})
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	added, err := s1.Add(ctx, "survive restart")
	require.NoError(t, err)
	require.NoError(t, s1.SetPreferences(ctx, todo.Preferences{HideDone: true}))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "survive restart", got.Text)

	p, err := s2.Preferences(ctx)
	require.NoError(t, err)
	assert.True(t, p.HideDone)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"todos", "state"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPing(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t)
	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestSchema_Version(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}
}

func TestSchema_TodosTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "todos")
	for _, col := range []string{"id", "text", "done", "created_at"} {
		if !contains(columns, col) {
			t.Errorf("todos table missing column %q", col)
		}
	}
}

func TestSchema_StateTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "state")
	for _, col := range []string{"id", "data"} {
		if !contains(columns, col) {
			t.Errorf("state table missing column %q", col)
		}
	}
}

func TestAdd_UsesClockForCreatedAt(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.Add(ctx, "first")
	require.NoError(t, err)
	second, err := s.Add(ctx, "second")
	require.NoError(t, err)

	assert.True(t, testutil.Epoch.Equal(first.CreatedAt), "created_at = %v", first.CreatedAt)
	assert.True(t, second.CreatedAt.After(first.CreatedAt))

	stored, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(stored.CreatedAt))
}

func TestAdd_NormalizesText(t *testing.T) {
	s := createTestStore(t)

	it, err := s.Add(context.Background(), "  buy milk  ")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", it.Text)

	var stored string
	require.NoError(t, s.db.QueryRow("SELECT text FROM todos WHERE id = ?", it.ID).Scan(&stored))
	assert.Equal(t, "buy milk", stored)
}

func TestAdd_StorageFailure(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.db.Close())

	_, err := s.Add(context.Background(), "nowhere to go")
	require.Error(t, err)
	assert.ErrorIs(t, err, todo.ErrStorage)
}
