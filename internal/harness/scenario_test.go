package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "hide_completed.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "hide_completed", s.Name)
	require.Len(t, s.Setup, 2)
	assert.Equal(t, "closed", s.Setup[1].Add)
	assert.True(t, s.Setup[1].Done)
	require.Len(t, s.Flow, 5)
	assert.Equal(t, "POST /toggle-completed", s.Flow[0].Request)
	require.NotNil(t, s.Flow[0].Expect.Trigger)
	assert.True(t, *s.Flow[0].Expect.Trigger)
	require.Len(t, s.Assertions, 3)
	assert.Equal(t, []string{"closed", "open"}, s.Assertions[1].Texts)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: tiny
description: "one request"
flow:
  - request: get /todos
assertions:
  - type: item_count
    count: 0
`), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", s.Name)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: a\ndescription: b\nflow: [{request: GET /todos}]\nassertion: []\n",
			wantErr: "field assertion not found",
		},
		{
			name:    "missing name",
			yaml:    "description: b\nflow: [{request: GET /todos}]\nassertions: [{type: item_count}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: a\nflow: [{request: GET /todos}]\nassertions: [{type: item_count}]\n",
			wantErr: "description is required",
		},
		{
			name:    "empty flow",
			yaml:    "name: a\ndescription: b\nassertions: [{type: item_count}]\n",
			wantErr: "flow list is required",
		},
		{
			name:    "no assertions",
			yaml:    "name: a\ndescription: b\nflow: [{request: GET /todos}]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "bad request line",
			yaml:    "name: a\ndescription: b\nflow: [{request: /todos}]\nassertions: [{type: item_count}]\n",
			wantErr: "want \"METHOD /path\"",
		},
		{
			name:    "unsupported method",
			yaml:    "name: a\ndescription: b\nflow: [{request: TRACE /todos}]\nassertions: [{type: item_count}]\n",
			wantErr: "unsupported method TRACE",
		},
		{
			name:    "bad status",
			yaml:    "name: a\ndescription: b\nflow: [{request: GET /todos, expect: {status: 42}}]\nassertions: [{type: item_count}]\n",
			wantErr: "invalid status 42",
		},
		{
			name:    "setup with both kinds",
			yaml:    "name: a\ndescription: b\nsetup: [{add: x, hide_done: true}]\nflow: [{request: GET /todos}]\nassertions: [{type: item_count}]\n",
			wantErr: "exactly one of add or hide_done",
		},
		{
			name:    "done without add",
			yaml:    "name: a\ndescription: b\nsetup: [{hide_done: true, done: true}]\nflow: [{request: GET /todos}]\nassertions: [{type: item_count}]\n",
			wantErr: "done is only valid with add",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: a\ndescription: b\nflow: [{request: GET /todos}]\nassertions: [{type: final_state}]\n",
			wantErr: "unknown assertion type",
		},
		{
			name:    "item without fields",
			yaml:    "name: a\ndescription: b\nflow: [{request: GET /todos}]\nassertions: [{type: item, id: 1}]\n",
			wantErr: "text or done is required",
		},
		{
			name:    "item_absent without id",
			yaml:    "name: a\ndescription: b\nflow: [{request: GET /todos}]\nassertions: [{type: item_absent}]\n",
			wantErr: "id is required for item_absent",
		},
		{
			name:    "list_order without texts",
			yaml:    "name: a\ndescription: b\nflow: [{request: GET /todos}]\nassertions: [{type: list_order}]\n",
			wantErr: "texts is required",
		},
		{
			name:    "preference without value",
			yaml:    "name: a\ndescription: b\nflow: [{request: GET /todos}]\nassertions: [{type: preference}]\n",
			wantErr: "hide_done is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSplitRequest(t *testing.T) {
	method, path, err := splitRequest("  patch   /todo/3 ")
	require.NoError(t, err)
	assert.Equal(t, "PATCH", method)
	assert.Equal(t, "/todo/3", path)
}
