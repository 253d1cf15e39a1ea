package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/imggen/imggen-server/internal/config"
	"github.com/imggen/imggen-server/internal/logger"
	"github.com/imggen/imggen-server/internal/media/images"
	"github.com/imggen/imggen-server/internal/metrics"
	"github.com/imggen/imggen-server/internal/ratelimit"
	"github.com/imggen/imggen-server/internal/sdapi"
	"github.com/imggen/imggen-server/internal/service"
)

// ProvidePromptService provides the prompt service, wired to search and history.
func ProvidePromptService(i do.Injector) (*service.PromptService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	imgs := do.MustInvoke[*images.Storage](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	history := do.MustInvoke[*HistoryHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewPromptService(storeHandle.Store, imgs, log.Logger)
	svc.SetIndexer(searchService)
	svc.SetHistory(history.HistoryStore)
	return svc, nil
}

// ProvideTagService provides the tag catalog service. The catalog file is
// created on first start.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewTagService(storeHandle.Store, log.Logger)
	if _, err := svc.ListTags(context.Background()); err != nil {
		return nil, err
	}
	return svc, nil
}

// ProvideImageService provides the image and preview service.
func ProvideImageService(i do.Injector) (*service.ImageService, error) {
	imgs := do.MustInvoke[*images.Storage](i)
	prompts := do.MustInvoke[*service.PromptService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewImageService(imgs, prompts, log.Logger), nil
}

// ProvideSDClient provides the Stable Diffusion API client.
func ProvideSDClient(i do.Injector) (*sdapi.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return sdapi.New(cfg.SD.BaseURL, cfg.SD.Timeout, log.Logger), nil
}

// ProvideMetrics provides the Prometheus registry and collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}

// RateLimiterHandle stops the limiter's janitor on shutdown.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRateLimiter provides the per-client API rate limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return &RateLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	}, nil
}

// ProvideGenerationService provides the generation orchestrator.
func ProvideGenerationService(i do.Injector) (*service.GenerationService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	prompts := do.MustInvoke[*service.PromptService](i)
	imageService := do.MustInvoke[*service.ImageService](i)
	imgs := do.MustInvoke[*images.Storage](i)
	client := do.MustInvoke[*sdapi.Client](i)
	history := do.MustInvoke[*HistoryHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewGenerationService(service.GenerationDeps{
		Prompts:  prompts,
		Images:   imageService,
		Storage:  imgs,
		Backend:  client,
		History:  history.HistoryStore,
		Observer: m,
		Logger:   log.Logger,
		MaxBatch: cfg.Generation.MaxBatch,
	}), nil
}
