package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/imggen/imggen-server/internal/api"
	"github.com/imggen/imggen-server/internal/config"
	"github.com/imggen/imggen-server/internal/logger"
	"github.com/imggen/imggen-server/internal/media/images"
	"github.com/imggen/imggen-server/internal/metrics"
	"github.com/imggen/imggen-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer builds the API handler and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	imgs := do.MustInvoke[*images.Storage](i)
	limiter := do.MustInvoke[*RateLimiterHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	services := &api.Services{
		Prompts:    do.MustInvoke[*service.PromptService](i),
		Tags:       do.MustInvoke[*service.TagService](i),
		Images:     do.MustInvoke[*service.ImageService](i),
		Generation: do.MustInvoke[*service.GenerationService](i),
		Search:     do.MustInvoke[*service.SearchService](i),
	}

	handler := api.NewServer(services, imgs, api.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Limiter:     limiter.KeyedRateLimiter,
		Metrics:     m,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
