package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imggen/imggen-server/internal/domain"
)

func setupTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, &domain.GenerationRecord{
		ID: "g1", PromptID: "p1", EffectivePrompt: "a cat", Seed: -1,
		Requested: 3, Saved: 3, Status: domain.GenerationSucceeded,
		DurationMS: 1500, CreatedAt: base,
	}))
	require.NoError(t, s.Record(ctx, &domain.GenerationRecord{
		ID: "g2", PromptID: "p1", EffectivePrompt: "a cat cute", Seed: 7,
		Requested: 1, Temporary: true, Status: domain.GenerationFailed,
		Error: "sdapi txt2img: server error", CreatedAt: base.Add(time.Minute),
	}))
	require.NoError(t, s.Record(ctx, &domain.GenerationRecord{
		ID: "g3", PromptID: "other", EffectivePrompt: "x", Status: domain.GenerationSucceeded, CreatedAt: base,
	}))

	list, err := s.ListForPrompt(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "g2", list[0].ID, "newest first")
	assert.True(t, list[0].Temporary)
	assert.Equal(t, domain.GenerationFailed, list[0].Status)
	assert.Contains(t, list[0].Error, "server error")

	assert.Equal(t, "g1", list[1].ID)
	assert.Equal(t, 3, list[1].Saved)
	assert.EqualValues(t, 1500, list[1].DurationMS)
	assert.True(t, base.Equal(list[1].CreatedAt))

	limited, err := s.ListForPrompt(ctx, "p1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDeleteForPrompt(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		require.NoError(t, s.Record(ctx, &domain.GenerationRecord{
			ID: id, PromptID: "p1", Status: domain.GenerationSucceeded, CreatedAt: time.Now(),
		}))
	}

	n, err := s.DeleteForPrompt(ctx, "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	list, err := s.ListForPrompt(ctx, "p1", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
