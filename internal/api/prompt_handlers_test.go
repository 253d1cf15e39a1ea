package api

import (
	"net/http"
	"testing"

	"github.com/imggen/imggen-server/internal/domain"
	"github.com/imggen/imggen-server/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePrompt_Defaults(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/prompts", map[string]any{"prompt": "a cat"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decodeEnvelope[PromptResponse](t, resp.Body.Bytes())
	assert.Equal(t, EnvelopeVersion, env.V)
	assert.True(t, env.Success)

	p := env.Data.Prompt
	require.NotNil(t, p)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "a cat", p.Prompt)
	assert.Equal(t, domain.DefaultSeed, p.Seed)
	assert.Equal(t, "", p.NegativePrompt)
	assert.Contains(t, p.Name, "Prompt ")
	assert.Empty(t, p.Tags)
	assert.Nil(t, p.PreviewImage)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestCreatePrompt_AllFields(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/prompts", map[string]any{
		"prompt":         "a dog",
		"negativePrompt": "blurry",
		"seed":           42,
		"name":           "Dog",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	p := decodeEnvelope[PromptResponse](t, resp.Body.Bytes()).Data.Prompt
	assert.Equal(t, "blurry", p.NegativePrompt)
	assert.Equal(t, int64(42), p.Seed)
	assert.Equal(t, "Dog", p.Name)
}

func TestCreatePrompt_BlankPromptRejected(t *testing.T) {
	ts := setupTestServer(t)

	for _, body := range []map[string]any{
		{"prompt": ""},
		{"prompt": "   "},
		{"name": "no text"},
	} {
		resp := ts.api.Post("/api/v1/prompts", body)
		require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

		env := decodeEnvelope[any](t, resp.Body.Bytes())
		assert.False(t, env.Success)
		assert.Equal(t, "VALIDATION", env.Code)
	}

	list := ts.api.Get("/api/v1/prompts")
	assert.Empty(t, decodeEnvelope[PromptsResponse](t, list.Body.Bytes()).Data.Prompts)
}

func TestGetPrompt(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createPrompt(t, map[string]any{"prompt": "a cat"})

	resp := ts.api.Get("/api/v1/prompts/" + id)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, id, decodeEnvelope[PromptResponse](t, resp.Body.Bytes()).Data.Prompt.ID)
}

func TestGetPrompt_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/prompts/does-not-exist")
	require.Equal(t, http.StatusNotFound, resp.Code)

	env := decodeEnvelope[any](t, resp.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
	assert.Equal(t, "Prompt not found", env.Message)
	assert.Nil(t, env.Data)
}

func TestListPrompts_NewestFirstAndTagFilter(t *testing.T) {
	ts := setupTestServer(t)
	first := ts.createPrompt(t, map[string]any{"prompt": "one"})
	second := ts.createPrompt(t, map[string]any{"prompt": "two"})

	resp := ts.api.Post("/api/v1/prompts/"+first+"/tags", map[string]any{"tag": "cute"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	list := decodeEnvelope[PromptsResponse](t, ts.api.Get("/api/v1/prompts").Body.Bytes()).Data.Prompts
	require.Len(t, list, 2)
	assert.False(t, list[0].CreatedAt.Before(list[1].CreatedAt))
	ids := []string{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []string{first, second}, ids)

	tagged := decodeEnvelope[PromptsResponse](t, ts.api.Get("/api/v1/prompts?tag=cute").Body.Bytes()).Data.Prompts
	require.Len(t, tagged, 1)
	assert.Equal(t, first, tagged[0].ID)
}

func TestUpdatePrompt(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createPrompt(t, map[string]any{"prompt": "a cat", "name": "Cat", "negativePrompt": "blurry"})

	resp := ts.api.Put("/api/v1/prompts/"+id, map[string]any{
		"prompt":         "",
		"name":           "",
		"negativePrompt": "",
		"seed":           7,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	p := decodeEnvelope[PromptResponse](t, resp.Body.Bytes()).Data.Prompt
	assert.Equal(t, "a cat", p.Prompt, "empty prompt is ignored")
	assert.Equal(t, "Cat", p.Name, "empty name is ignored")
	assert.Equal(t, "", p.NegativePrompt, "negative prompt may be cleared")
	assert.Equal(t, int64(7), p.Seed)
	assert.False(t, p.UpdatedAt.Before(p.CreatedAt))
}

func TestUpdatePrompt_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Put("/api/v1/prompts/missing", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeletePrompt(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createPrompt(t, map[string]any{"prompt": "a cat"})

	gen := ts.api.Post("/api/v1/prompts/"+id+"/generate", map[string]any{"count": 1})
	require.Equal(t, http.StatusOK, gen.Code, gen.Body.String())

	resp := ts.api.Delete("/api/v1/prompts/" + id)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Prompt deleted successfully",
		decodeEnvelope[MessageResponse](t, resp.Body.Bytes()).Data.Message)

	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/prompts/"+id).Code)
	assert.NoDirExists(t, ts.imageDir+"/"+id)

	again := ts.api.Delete("/api/v1/prompts/" + id)
	assert.Equal(t, http.StatusNotFound, again.Code)
}

func TestGetPromptImages(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createPrompt(t, map[string]any{"prompt": "a cat"})

	empty := decodeEnvelope[PromptImagesResponse](t, ts.api.Get("/api/v1/prompts/"+id+"/images").Body.Bytes())
	assert.Equal(t, id, empty.Data.Prompt.ID)
	assert.Empty(t, empty.Data.Images)

	gen := ts.api.Post("/api/v1/prompts/"+id+"/generate", map[string]any{"count": 2})
	require.Equal(t, http.StatusOK, gen.Code, gen.Body.String())

	resp := ts.api.Get("/api/v1/prompts/" + id + "/images")
	require.Equal(t, http.StatusOK, resp.Code)
	env := decodeEnvelope[PromptImagesResponse](t, resp.Body.Bytes())
	require.Len(t, env.Data.Images, 2)
	for _, img := range env.Data.Images {
		assert.Contains(t, img.Path, "/images/"+id+"/")
		assert.Contains(t, img.ThumbnailPath, domain.ThumbnailPrefix)
	}

	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/prompts/missing/images").Code)
}

func TestListGenerations(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createPrompt(t, map[string]any{"prompt": "a cat"})

	gen := ts.api.Post("/api/v1/prompts/"+id+"/generate", map[string]any{"count": 2})
	require.Equal(t, http.StatusOK, gen.Code, gen.Body.String())

	resp := ts.api.Get("/api/v1/prompts/" + id + "/generations")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	recs := decodeEnvelope[GenerationsResponse](t, resp.Body.Bytes()).Data.Generations
	require.Len(t, recs, 1)
	assert.Equal(t, id, recs[0].PromptID)
	assert.Equal(t, 2, recs[0].Requested)
	assert.Equal(t, 2, recs[0].Saved)
	assert.Equal(t, domain.GenerationSucceeded, recs[0].Status)

	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/prompts/missing/generations").Code)
}

func TestSearchPrompts(t *testing.T) {
	ts := setupTestServer(t)
	catID := ts.createPrompt(t, map[string]any{"prompt": "a fluffy cat on a sofa", "name": "Sofa cat"})
	ts.createPrompt(t, map[string]any{"prompt": "a mountain lake at dawn"})

	resp := ts.api.Get("/api/v1/prompts/search?q=cat")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	res := decodeEnvelope[search.Result](t, resp.Body.Bytes()).Data
	require.Equal(t, uint64(1), res.Total)
	assert.Equal(t, catID, res.Hits[0].ID)

	bad := ts.api.Get("/api/v1/prompts/search?q=cat&limit=0")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, "VALIDATION", decodeEnvelope[any](t, bad.Body.Bytes()).Code)
}
