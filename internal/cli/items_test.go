package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/todox/internal/todo"
)

// execute runs the root command with args and returns stdout, stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestItemCommands_SQLite(t *testing.T) {
	db := filepath.Join(t.TempDir(), "todos.sqlite")
	storeFlags := []string{"--backend", "sqlite", "--db", db}

	out, _, err := execute(t, append([]string{"add", "buy", "milk"}, storeFlags...)...)
	require.NoError(t, err)
	assert.Equal(t, "added 1: buy milk\n", out)

	out, _, err = execute(t, append([]string{"--format", "json", "add", "walk dog"}, storeFlags...)...)
	require.NoError(t, err)

	var added struct {
		Status string    `json:"status"`
		Data   todo.Item `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &added))
	assert.Equal(t, "ok", added.Status)
	assert.Equal(t, int64(2), added.Data.ID)
	assert.Equal(t, "walk dog", added.Data.Text)

	out, _, err = execute(t, append([]string{"list"}, storeFlags...)...)
	require.NoError(t, err)
	assert.Equal(t, "[ ]   2  walk dog\n[ ]   1  buy milk\n", out)

	// Nothing is done yet.
	out, _, err = execute(t, append([]string{"--format", "json", "clear-completed"}, storeFlags...)...)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":{"removed":0}}`, out)
}

func TestListCommand_HideDone(t *testing.T) {
	db := filepath.Join(t.TempDir(), "todos.sqlite")
	storeFlags := []string{"--backend", "sqlite", "--db", db}

	_, _, err := execute(t, append([]string{"add", "open"}, storeFlags...)...)
	require.NoError(t, err)

	out, _, err := execute(t, append([]string{"list", "--hide-done"}, storeFlags...)...)
	require.NoError(t, err)
	assert.Equal(t, "[ ]   1  open\n", out)

	out, _, err = execute(t, append([]string{"list"}, storeFlags...)...)
	require.NoError(t, err)
	assert.Equal(t, "[ ]   1  open\n", out)
}

func TestListCommand_Empty(t *testing.T) {
	out, _, err := execute(t, "list", "--backend", "memory")
	require.NoError(t, err)
	assert.Equal(t, "no items\n", out)
}

func TestAddCommand_Validation(t *testing.T) {
	out, _, err := execute(t, "add", "   ", "--backend", "memory")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeValidation+"]")
}

func TestAddCommand_RequiresText(t *testing.T) {
	_, _, err := execute(t, "add", "--backend", "memory")
	require.Error(t, err)
}

func TestItemCommands_InvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "todox.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  backend: postgres\n"), 0o644))

	out, _, err := execute(t, "--config", cfgPath, "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeConfig+"]")
}

func TestItemCommands_UnknownConfigKey(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "todox.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("colour: blue\n"), 0o644))

	_, _, err := execute(t, "--config", cfgPath, "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestItemCommands_BackendFromConfig(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "from-config.sqlite")
	cfgPath := filepath.Join(dir, "todox.yaml")
	cfg := "storage:\n  backend: sqlite\n  sqlite_path: " + db + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	_, _, err := execute(t, "--config", cfgPath, "add", "configured")
	require.NoError(t, err)

	_, err = os.Stat(db)
	require.NoError(t, err, "store should be created at the configured path")

	out, _, err := execute(t, "--config", cfgPath, "list")
	require.NoError(t, err)
	assert.Equal(t, "[ ]   1  configured\n", out)
}

func TestItemCommands_StoreOpenFailure(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing", "dir", "todos.sqlite")

	out, _, err := execute(t, "list", "--backend", "sqlite", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeStore+"]")
}
