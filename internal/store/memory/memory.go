// Package memory provides an in-process todo.Store. Nothing survives a
// restart; it backs tests and throwaway servers.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/roach88/todox/internal/todo"
)

// Store keeps items in a newest-first slice guarded by one RWMutex.
type Store struct {
	mu    sync.RWMutex
	now   func() time.Time
	seq   int64
	items []todo.Item // newest first
	prefs *todo.Preferences
}

var _ todo.Store = (*Store)(nil)

// New returns an empty store using the given clock, or time.Now when nil.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now, items: []todo.Item{}}
}

func (s *Store) Close() error { return nil }

func (s *Store) Add(ctx context.Context, text string) (todo.Item, error) {
	_ = ctx

	text, err := todo.ValidateText(text)
	if err != nil {
		return todo.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	it := todo.Item{ID: s.seq, Text: text, CreatedAt: s.now().UTC()}
	s.items = append([]todo.Item{it}, s.items...)
	return it, nil
}

func (s *Store) List(ctx context.Context, hideDone bool) ([]todo.Item, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()
	return todo.Filter(s.items, hideDone), nil
}

func (s *Store) Get(ctx context.Context, id int64) (todo.Item, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return todo.Item{}, todo.NotFound(id)
	}
	return s.items[i], nil
}

func (s *Store) ToggleDone(ctx context.Context, id int64) (todo.Item, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return todo.Item{}, todo.NotFound(id)
	}
	s.items[i].Done = !s.items[i].Done
	return s.items[i], nil
}

func (s *Store) SetText(ctx context.Context, id int64, text string, done bool) (todo.Item, error) {
	_ = ctx

	text, err := todo.ValidateText(text)
	if err != nil {
		return todo.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return todo.Item{}, todo.NotFound(id)
	}
	s.items[i].Text = text
	s.items[i].Done = done
	return s.items[i], nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return todo.NotFound(id)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *Store) DeleteAllDone(ctx context.Context) (int64, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	var removed int64
	for _, it := range s.items {
		if it.Done {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	return removed, nil
}

func (s *Store) Preferences(ctx context.Context) (todo.Preferences, error) {
	_ = ctx

	s.mu.RLock()
	p := s.prefs
	s.mu.RUnlock()
	if p != nil {
		return *p, nil
	}

	// seed
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs == nil {
		s.prefs = &todo.Preferences{}
	}
	return *s.prefs, nil
}

func (s *Store) SetPreferences(ctx context.Context, p todo.Preferences) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = &p
	return nil
}

func (s *Store) ToggleHideDone(ctx context.Context) (todo.Preferences, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	var p todo.Preferences
	if s.prefs != nil {
		p = *s.prefs
	}
	p.HideDone = !p.HideDone
	s.prefs = &p
	return p, nil
}

// index returns the slice position of id, or -1. Caller holds the lock.
func (s *Store) index(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
