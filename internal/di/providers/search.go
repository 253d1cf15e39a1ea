package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/imggen/imggen-server/internal/config"
	"github.com/imggen/imggen-server/internal/logger"
	"github.com/imggen/imggen-server/internal/search"
	"github.com/imggen/imggen-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
	// Fresh is true when the index was created on this start.
	Fresh bool
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, fresh, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Storage.DataPath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount, "fresh", fresh)

	return &SearchIndexHandle{SearchIndex: index, Fresh: fresh}, nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(indexHandle.SearchIndex, storeHandle.Store, log.Logger), nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when it
// was just created, or when it is empty while records exist.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	searchService := do.MustInvoke[*service.SearchService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx := context.Background()
	if !indexHandle.Fresh {
		docCount, _ := searchService.Count(ctx)
		if docCount > 0 {
			return
		}
	}

	prompts, err := storeHandle.ListPrompts(ctx)
	if err != nil || len(prompts) == 0 {
		return
	}

	log.Info("Search index needs a rebuild, reindexing prompts", "prompt_count", len(prompts))

	go func() {
		if err := searchService.Reindex(ctx); err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		count, _ := searchService.Count(ctx)
		log.Info("Initial search reindex completed", "documents", count)
	}()
}
