// Package todo defines the to-do domain shared by every storage backend and
// the HTTP layer.
//
// # Items
//
// An Item has an id, a text and a done flag. Ids are assigned by the store,
// grow monotonically and are never handed out twice, even after the item is
// deleted. Lists are always returned newest-first.
//
// # Preferences
//
// Preferences holds the single "hide completed" flag. It is persisted under
// the fixed key PreferencesKey and created with defaults on first read.
//
// # Errors
//
// Stores classify failures with three sentinels:
//   - ErrValidation: the caller supplied bad input, nothing was changed
//   - ErrNotFound: the referenced item does not exist
//   - ErrStorage: the backend failed; the request must not be retried
//
// Use errors.Is to classify; backends wrap the driver error alongside the
// sentinel so the cause stays visible in logs.
package todo
