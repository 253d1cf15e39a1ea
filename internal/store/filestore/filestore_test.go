package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imggen/imggen-server/internal/domain"
	"github.com/imggen/imggen-server/internal/store"
	"github.com/imggen/imggen-server/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(t.TempDir(), nil)
		require.NoError(t, err)
		return s
	})
}

func TestLayoutOnDisk(t *testing.T) {
	root := t.TempDir()
	s, err := New(root, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.SavePrompt(ctx, &domain.Prompt{ID: "abc", Prompt: "x", Tags: []string{}}))
	require.NoError(t, s.SaveTagCatalog(ctx, []string{"cat"}))

	data, err := os.ReadFile(filepath.Join(root, "prompts", "abc.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"id\": \"abc\""), "records are two-space indented")
	assert.Contains(t, string(data), `"previewImage": null`)

	data, err = os.ReadFile(filepath.Join(root, "global-tags.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"tags":["cat"]}`, string(data))
}

func TestListSkipsUnreadableFiles(t *testing.T) {
	root := t.TempDir()
	s, err := New(root, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.SavePrompt(ctx, &domain.Prompt{ID: "good", Prompt: "x"}))
	require.NoError(t, os.WriteFile(filepath.Join(root, "prompts", "broken.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "prompts", "notes.txt"), []byte("hi"), 0o644))

	list, err := s.ListPrompts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "good", list[0].ID)
	assert.Equal(t, []string{}, list[0].Tags, "missing tags are normalized to empty")
}

func TestHandEditedTagsAreDeduplicated(t *testing.T) {
	root := t.TempDir()
	s, err := New(root, nil)
	require.NoError(t, err)

	record := `{"id":"edited","prompt":"x","tags":["cute","cute","  night ",""]}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "prompts", "edited.json"), []byte(record), 0o644))

	p, err := s.GetPrompt(context.Background(), "edited")
	require.NoError(t, err)
	assert.Equal(t, []string{"cute", "night"}, p.Tags)
}

func TestPromptIDFromPath(t *testing.T) {
	id, ok := PromptIDFromPath("/data/prompts/abc.json")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = PromptIDFromPath("/data/prompts/.abc.json.swp")
	assert.False(t, ok)
	_, ok = PromptIDFromPath("/data/prompts/.hidden.json")
	assert.False(t, ok)
}
