// Package di provides dependency injection configuration for the imggen server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/imggen/imggen-server/internal/config"
	"github.com/imggen/imggen-server/internal/di/providers"
	"github.com/imggen/imggen-server/internal/logger"
	"github.com/imggen/imggen-server/internal/media/images"
	"github.com/imggen/imggen-server/internal/metrics"
	"github.com/imggen/imggen-server/internal/sdapi"
	"github.com/imggen/imggen-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideHistory)
	do.Provide(injector, providers.ProvideImageStorage)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Generation backend
	do.Provide(injector, providers.ProvideSDClient)

	// Business services
	do.Provide(injector, providers.ProvidePromptService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideImageService)
	do.Provide(injector, providers.ProvideGenerationService)

	// Workers
	do.Provide(injector, providers.ProvidePromptWatcher)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the server.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HistoryHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*images.Storage](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*sdapi.Client](injector)

	// Business services
	_ = do.MustInvoke[*service.PromptService](injector)
	if _, err := do.Invoke[*service.TagService](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*service.ImageService](injector)
	_ = do.MustInvoke[*service.GenerationService](injector)

	// Workers
	if _, err := do.Invoke[*providers.PromptWatcherHandle](injector); err != nil {
		return err
	}

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
