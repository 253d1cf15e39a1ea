package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveGeneration(t *testing.T) {
	m := New()

	m.ObserveGeneration(KindBatch, true, 3, 2*time.Second)
	m.ObserveGeneration(KindTemporary, false, 0, time.Second)

	assert.InDelta(t, 1, testutil.ToFloat64(m.generations.WithLabelValues(KindBatch, "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.generations.WithLabelValues(KindTemporary, "error")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.imagesSaved), 0)
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/prompts/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prompts/"+id, nil))
	}

	assert.InDelta(t, 2, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/prompts/{id}", "418")), 0)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveGeneration(KindBatch, true, 1, time.Second)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "imggen_images_saved_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
