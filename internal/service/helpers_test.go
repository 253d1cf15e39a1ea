package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/imggen/imggen-server/internal/domain"
	"github.com/imggen/imggen-server/internal/media/images"
	"github.com/imggen/imggen-server/internal/sdapi"
	"github.com/imggen/imggen-server/internal/store/filestore"
	"github.com/imggen/imggen-server/internal/store/sqlite"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	root    string
	store   *filestore.Store
	images  *images.Storage
	history *sqlite.HistoryStore
	prompts *PromptService
	tags    *TagService
	imgSvc  *ImageService
	gen     *GenerationService
	sd      *fakeSD
}

// fakeSD stands in for the Stable Diffusion web API.
type fakeSD struct {
	mu       sync.Mutex
	requests []map[string]any
	status   int
}

func (f *fakeSD) lastRequest() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeSD) fail(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func (f *fakeSD) handler(t *testing.T) http.Handler {
	encoded := base64.StdEncoding.EncodeToString(testPNG(t, 64, 96))
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sdapi/v1/txt2img", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, body)
		status := f.status
		f.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"OutOfMemoryError","errors":"CUDA out of memory"}`))
			return
		}

		n := int(body["batch_size"].(float64))
		out := make([]string, n)
		for i := range out {
			out[i] = encoded
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"images": out})
	})
	mux.HandleFunc("GET /sdapi/v1/progress", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"progress":0,"state":{"sampling_step":0,"sampling_steps":0}}`))
	})
	mux.HandleFunc("GET /sdapi/v1/sd-models", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"title":"sdxl.safetensors [abc]","model_name":"sdxl"}]`))
	})
	mux.HandleFunc("GET /sdapi/v1/options", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"sd_model_checkpoint":"sdxl.safetensors [abc]","CLIP_stop_at_last_layers":2}`))
	})
	return mux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	root := t.TempDir()

	st, err := filestore.New(root, logger)
	require.NoError(t, err)
	imgs, err := images.NewStorage(filepath.Join(root, "images"), logger)
	require.NoError(t, err)
	hist, err := sqlite.Open(filepath.Join(root, "history.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hist.Close() })

	sd := &fakeSD{}
	srv := httptest.NewServer(sd.handler(t))
	t.Cleanup(srv.Close)

	prompts := NewPromptService(st, imgs, logger)
	prompts.SetHistory(hist)
	imgSvc := NewImageService(imgs, prompts, logger)
	gen := NewGenerationService(GenerationDeps{
		Prompts:  prompts,
		Images:   imgSvc,
		Storage:  imgs,
		Backend:  sdapi.New(srv.URL, 10*time.Second, logger),
		History:  hist,
		Logger:   logger,
		MaxBatch: 4,
	})

	return &testEnv{
		root:    root,
		store:   st,
		images:  imgs,
		history: hist,
		prompts: prompts,
		tags:    NewTagService(st, logger),
		imgSvc:  imgSvc,
		gen:     gen,
		sd:      sd,
	}
}

func (e *testEnv) createPrompt(t *testing.T, text string) string {
	t.Helper()
	p, err := e.prompts.Create(context.Background(), domainCreate(text))
	require.NoError(t, err)
	return p.ID
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 2), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func domainCreate(text string) domain.CreatePrompt {
	return domain.CreatePrompt{Prompt: text}
}

func ptr[T any](v T) *T { return &v }
