// Package sqlite provides the SQLite-backed todo.Store.
//
// The database holds two tables:
//   - todos: one row per item (id, text, done, created_at)
//   - state: key/value rows; the preferences live under todo.PreferencesKey
//     as a JSON document
//
// # Identity and Ordering
//
//   - Ids come from INTEGER PRIMARY KEY AUTOINCREMENT, so a deleted id is
//     never handed out again
//   - Lists are ordered by created_at DESC, id DESC (newest first, ties
//     broken by insertion order)
//
// # Concurrency
//
// A single sync.RWMutex guards the connection pool: reads share it, writes
// hold it exclusively. The pool itself is capped at one connection because
// SQLite only supports one writer at a time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package sqlite
