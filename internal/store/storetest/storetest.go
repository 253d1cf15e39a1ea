// Package storetest runs the same behavioral checks against every
// store.Store backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imggen/imggen-server/internal/domain"
	"github.com/imggen/imggen-server/internal/store"
)

// Run exercises a fresh store returned by open for each subtest.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("save and get round trip", func(t *testing.T) {
		s := open(t)
		p := newPrompt("p1", time.Now())
		p.Tags = []string{"cat", "cute"}
		require.NoError(t, s.SavePrompt(ctx, p))

		got, err := s.GetPrompt(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, p.Prompt, got.Prompt)
		assert.Equal(t, p.Seed, got.Seed)
		assert.Equal(t, []string{"cat", "cute"}, got.Tags)
		assert.Nil(t, got.PreviewImage)
		assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		s := open(t)
		_, err := s.GetPrompt(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.GetPrompt(ctx, "../escape")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list returns every record", func(t *testing.T) {
		s := open(t)
		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, s.SavePrompt(ctx, newPrompt(id, time.Now())))
		}
		list, err := s.ListPrompts(ctx)
		require.NoError(t, err)

		ids := make([]string, 0, len(list))
		for _, p := range list {
			ids = append(ids, p.ID)
		}
		assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
	})

	t.Run("delete", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.SavePrompt(ctx, newPrompt("gone", time.Now())))
		require.NoError(t, s.DeletePrompt(ctx, "gone"))

		_, err := s.GetPrompt(ctx, "gone")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, s.DeletePrompt(ctx, "gone"), store.ErrNotFound)
	})

	t.Run("last write wins", func(t *testing.T) {
		s := open(t)
		first := newPrompt("same", time.Now())
		second := newPrompt("same", time.Now())
		first.Name, second.Name = "first", "second"

		require.NoError(t, s.SavePrompt(ctx, first))
		require.NoError(t, s.SavePrompt(ctx, second))

		got, err := s.GetPrompt(ctx, "same")
		require.NoError(t, err)
		assert.Equal(t, "second", got.Name)
	})

	t.Run("tag catalog lifecycle", func(t *testing.T) {
		s := open(t)
		_, err := s.LoadTagCatalog(ctx)
		assert.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, s.SaveTagCatalog(ctx, nil))
		tags, err := s.LoadTagCatalog(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{}, tags)

		require.NoError(t, s.SaveTagCatalog(ctx, []string{"a", "b"}))
		tags, err = s.LoadTagCatalog(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, tags)
	})
}

func newPrompt(id string, now time.Time) *domain.Prompt {
	now = now.UTC().Truncate(time.Millisecond)
	return &domain.Prompt{
		ID:        id,
		Prompt:    "a cat on a sofa",
		Seed:      domain.DefaultSeed,
		Name:      "Prompt " + id,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
