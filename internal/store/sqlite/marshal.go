package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/todox/internal/todo"
)

// marshalPreferences converts Preferences to the JSON TEXT stored in the
// state table.
func marshalPreferences(p todo.Preferences) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal preferences: %w", err)
	}
	return string(data), nil
}

// unmarshalPreferences parses a state row. An undecodable row yields the
// default Preferences rather than an error.
func unmarshalPreferences(data string) todo.Preferences {
	var p todo.Preferences
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return todo.Preferences{}
	}
	return p
}
