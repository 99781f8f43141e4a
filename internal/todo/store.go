package todo

import "context"

// ItemStore holds to-do items.
//
// Implementations must be safe for concurrent use. Readers may run in
// parallel; writers are exclusive.
type ItemStore interface {
	// Add creates an undone item with the next id.
	// Returns ErrValidation for empty or oversized text.
	Add(ctx context.Context, text string) (Item, error)

	// List returns items newest-first, skipping done items when hideDone
	// is set. The result is never nil.
	List(ctx context.Context, hideDone bool) ([]Item, error)

	// Get returns the item with id, or ErrNotFound.
	Get(ctx context.Context, id int64) (Item, error)

	// ToggleDone flips the done flag and returns the updated item.
	ToggleDone(ctx context.Context, id int64) (Item, error)

	// SetText replaces text and done in a single write.
	SetText(ctx context.Context, id int64, text string, done bool) (Item, error)

	// Delete removes one item, or returns ErrNotFound.
	Delete(ctx context.Context, id int64) error

	// DeleteAllDone removes every done item and returns how many were
	// removed. Removing nothing is not an error.
	DeleteAllDone(ctx context.Context) (int64, error)
}

// PreferenceStore holds the singleton Preferences row.
type PreferenceStore interface {
	// Preferences returns the stored preferences, seeding defaults when the
	// row does not exist yet. On a storage failure it returns defaults
	// together with an ErrStorage error so callers can carry on.
	Preferences(ctx context.Context) (Preferences, error)

	// SetPreferences persists p.
	SetPreferences(ctx context.Context, p Preferences) error

	// ToggleHideDone flips HideDone atomically and returns the new value.
	// On failure the stored value is unchanged.
	ToggleHideDone(ctx context.Context) (Preferences, error)
}

// Store is a complete backend.
type Store interface {
	ItemStore
	PreferenceStore
	Close() error
}
