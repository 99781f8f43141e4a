// Package storetest holds the behavioural contract every todo.Store backend
// must satisfy. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/todox/internal/todo"
)

// Factory returns a fresh, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) todo.Store

// Run executes the full contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s todo.Store)
	}{
		{"AddRejectsEmptyText", testAddRejectsEmptyText},
		{"AddThenList", testAddThenList},
		{"ListNewestFirst", testListNewestFirst},
		{"GetMissing", testGetMissing},
		{"ToggleIsInvolution", testToggleIsInvolution},
		{"ToggleMissing", testToggleMissing},
		{"HiddenListIsSubset", testHiddenListIsSubset},
		{"SetText", testSetText},
		{"SetTextRejectsEmpty", testSetTextRejectsEmpty},
		{"SetTextMissing", testSetTextMissing},
		{"DeleteOne", testDeleteOne},
		{"DeleteMissingLeavesStoreUnchanged", testDeleteMissing},
		{"DeleteAllDone", testDeleteAllDone},
		{"DeleteAllDoneWhenNoneDone", testDeleteAllDoneNoop},
		{"IdsNeverReused", testIdsNeverReused},
		{"PreferencesDefault", testPreferencesDefault},
		{"SetPreferences", testSetPreferences},
		{"ToggleHideDoneTwice", testToggleHideDoneTwice},
		{"ConcurrentAdds", testConcurrentAdds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func mustAdd(t *testing.T, s todo.Store, text string) todo.Item {
	t.Helper()
	it, err := s.Add(context.Background(), text)
	require.NoError(t, err)
	return it
}

func mustList(t *testing.T, s todo.Store, hideDone bool) []todo.Item {
	t.Helper()
	items, err := s.List(context.Background(), hideDone)
	require.NoError(t, err)
	require.NotNil(t, items)
	return items
}

func texts(items []todo.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

func testAddRejectsEmptyText(t *testing.T, s todo.Store) {
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.Add(context.Background(), text)
		require.Error(t, err)
		assert.ErrorIs(t, err, todo.ErrValidation)
	}
	assert.Empty(t, mustList(t, s, false))
}

func testAddThenList(t *testing.T, s todo.Store) {
	added := mustAdd(t, s, "buy milk")
	assert.Equal(t, "buy milk", added.Text)
	assert.False(t, added.Done)
	assert.NotZero(t, added.ID)

	items := mustList(t, s, false)
	require.Len(t, items, 1)
	assert.Equal(t, added.ID, items[0].ID)
	assert.Equal(t, "buy milk", items[0].Text)
	assert.False(t, items[0].Done)

	got, err := s.Get(context.Background(), added.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got.Text)
}

func testListNewestFirst(t *testing.T, s todo.Store) {
	mustAdd(t, s, "first")
	mustAdd(t, s, "second")
	mustAdd(t, s, "third")

	assert.Equal(t, []string{"third", "second", "first"}, texts(mustList(t, s, false)))
}

func testGetMissing(t *testing.T, s todo.Store) {
	_, err := s.Get(context.Background(), 999)
	assert.ErrorIs(t, err, todo.ErrNotFound)
}

func testToggleIsInvolution(t *testing.T, s todo.Store) {
	ctx := context.Background()
	it := mustAdd(t, s, "walk dog")

	once, err := s.ToggleDone(ctx, it.ID)
	require.NoError(t, err)
	assert.True(t, once.Done)
	assert.Equal(t, "walk dog", once.Text)

	twice, err := s.ToggleDone(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, it.Done, twice.Done)

	got, err := s.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.False(t, got.Done)
}

func testToggleMissing(t *testing.T, s todo.Store) {
	_, err := s.ToggleDone(context.Background(), 12345)
	assert.ErrorIs(t, err, todo.ErrNotFound)
}

func testHiddenListIsSubset(t *testing.T, s todo.Store) {
	ctx := context.Background()
	a := mustAdd(t, s, "a")
	mustAdd(t, s, "b")
	c := mustAdd(t, s, "c")
	mustAdd(t, s, "d")

	_, err := s.ToggleDone(ctx, a.ID)
	require.NoError(t, err)
	_, err = s.ToggleDone(ctx, c.ID)
	require.NoError(t, err)

	all := mustList(t, s, false)
	visible := mustList(t, s, true)

	allIDs := make(map[int64]bool, len(all))
	for _, it := range all {
		allIDs[it.ID] = true
	}
	for _, it := range visible {
		assert.False(t, it.Done, "hidden list contains done item %d", it.ID)
		assert.True(t, allIDs[it.ID], "hidden list item %d missing from full list", it.ID)
	}
	assert.Equal(t, []string{"d", "b"}, texts(visible))
	assert.Len(t, all, 4)
}

func testSetText(t *testing.T, s todo.Store) {
	ctx := context.Background()
	it := mustAdd(t, s, "draft")

	updated, err := s.SetText(ctx, it.ID, "final", true)
	require.NoError(t, err)
	assert.Equal(t, it.ID, updated.ID)
	assert.Equal(t, "final", updated.Text)
	assert.True(t, updated.Done)

	got, err := s.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Text)
	assert.True(t, got.Done)
}

func testSetTextRejectsEmpty(t *testing.T, s todo.Store) {
	ctx := context.Background()
	it := mustAdd(t, s, "keep me")

	_, err := s.SetText(ctx, it.ID, "  ", true)
	assert.ErrorIs(t, err, todo.ErrValidation)

	got, err := s.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep me", got.Text)
	assert.False(t, got.Done)
}

func testSetTextMissing(t *testing.T, s todo.Store) {
	_, err := s.SetText(context.Background(), 77, "text", false)
	assert.ErrorIs(t, err, todo.ErrNotFound)
}

func testDeleteOne(t *testing.T, s todo.Store) {
	ctx := context.Background()
	keep := mustAdd(t, s, "keep")
	drop := mustAdd(t, s, "drop")

	require.NoError(t, s.Delete(ctx, drop.ID))

	items := mustList(t, s, false)
	require.Len(t, items, 1)
	assert.Equal(t, keep.ID, items[0].ID)

	_, err := s.Get(ctx, drop.ID)
	assert.ErrorIs(t, err, todo.ErrNotFound)
}

func testDeleteMissing(t *testing.T, s todo.Store) {
	mustAdd(t, s, "one")
	mustAdd(t, s, "two")
	before := mustList(t, s, false)

	err := s.Delete(context.Background(), 4242)
	assert.ErrorIs(t, err, todo.ErrNotFound)

	assert.Equal(t, before, mustList(t, s, false))
}

func testDeleteAllDone(t *testing.T, s todo.Store) {
	ctx := context.Background()
	a := mustAdd(t, s, "a")
	mustAdd(t, s, "b")
	c := mustAdd(t, s, "c")
	for _, id := range []int64{a.ID, c.ID} {
		_, err := s.ToggleDone(ctx, id)
		require.NoError(t, err)
	}

	n, err := s.DeleteAllDone(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	items := mustList(t, s, false)
	for _, it := range items {
		assert.False(t, it.Done)
	}
	assert.Equal(t, []string{"b"}, texts(items))
}

func testDeleteAllDoneNoop(t *testing.T, s todo.Store) {
	mustAdd(t, s, "pending")

	n, err := s.DeleteAllDone(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, mustList(t, s, false), 1)
}

func testIdsNeverReused(t *testing.T, s todo.Store) {
	ctx := context.Background()
	first := mustAdd(t, s, "first")
	second := mustAdd(t, s, "second")

	require.NoError(t, s.Delete(ctx, second.ID))
	require.NoError(t, s.Delete(ctx, first.ID))

	third := mustAdd(t, s, "third")
	assert.Greater(t, third.ID, second.ID)
	assert.NotEqual(t, first.ID, third.ID)
}

func testPreferencesDefault(t *testing.T, s todo.Store) {
	ctx := context.Background()

	p, err := s.Preferences(ctx)
	require.NoError(t, err)
	assert.False(t, p.HideDone)

	// Second read hits the seeded row.
	p, err = s.Preferences(ctx)
	require.NoError(t, err)
	assert.False(t, p.HideDone)
}

func testSetPreferences(t *testing.T, s todo.Store) {
	ctx := context.Background()

	require.NoError(t, s.SetPreferences(ctx, todo.Preferences{HideDone: true}))
	p, err := s.Preferences(ctx)
	require.NoError(t, err)
	assert.True(t, p.HideDone)

	require.NoError(t, s.SetPreferences(ctx, todo.Preferences{HideDone: false}))
	p, err = s.Preferences(ctx)
	require.NoError(t, err)
	assert.False(t, p.HideDone)
}

func testToggleHideDoneTwice(t *testing.T, s todo.Store) {
	ctx := context.Background()
	original, err := s.Preferences(ctx)
	require.NoError(t, err)

	once, err := s.ToggleHideDone(ctx)
	require.NoError(t, err)
	assert.Equal(t, !original.HideDone, once.HideDone)

	stored, err := s.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, once, stored)

	twice, err := s.ToggleHideDone(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, twice)
}

func testConcurrentAdds(t *testing.T, s todo.Store) {
	const n = 20
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan int64, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			it, err := s.Add(ctx, fmt.Sprintf("item %d", i))
			if err != nil {
				errs <- err
				return
			}
			ids <- it.ID
		}(i)
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	seen := make(map[int64]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.Len(t, mustList(t, s, false), n)
}
