// Package metrics exposes Prometheus instrumentation for generation and the
// HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation kinds.
const (
	KindBatch     = "batch"
	KindTemporary = "temporary"
)

// Metrics owns a registry and every collector registered on it.
type Metrics struct {
	registry *prometheus.Registry

	generations        *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	imagesSaved        prometheus.Counter
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates a registry with Go runtime and process collectors plus the
// application metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "imggen_generations_total",
			Help: "Generation batches sent to the Stable Diffusion API.",
		}, []string{"kind", "status"}),
		generationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imggen_generation_duration_seconds",
			Help:    "Time from request to last image saved.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"kind", "status"}),
		imagesSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "imggen_images_saved_total",
			Help: "Generated images written to disk.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "imggen_http_requests_total",
			Help: "HTTP requests by route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imggen_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveGeneration records one generation batch.
func (m *Metrics) ObserveGeneration(kind string, ok bool, saved int, elapsed time.Duration) {
	status := "success"
	if !ok {
		status = "error"
	}
	m.generations.WithLabelValues(kind, status).Inc()
	m.generationDuration.WithLabelValues(kind, status).Observe(elapsed.Seconds())
	if saved > 0 {
		m.imagesSaved.Add(float64(saved))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware records request counts and latency labeled by the chi route
// pattern, so /prompts/{id} is one series rather than one per prompt.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
