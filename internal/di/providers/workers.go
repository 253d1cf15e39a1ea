package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/imggen/imggen-server/internal/config"
	"github.com/imggen/imggen-server/internal/logger"
	"github.com/imggen/imggen-server/internal/service"
	"github.com/imggen/imggen-server/internal/watcher"
)

// PromptWatcherHandle wraps the prompt file watcher with shutdown capability.
// Watcher is nil when watching is disabled or the backend is not files.
type PromptWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *PromptWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Watcher.Stop()
}

// ProvidePromptWatcher watches the prompt record directory and keeps the
// search index in step with files edited outside the API.
func ProvidePromptWatcher(i do.Injector) (*PromptWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)

	if !cfg.Storage.WatchPrompts || storeHandle.Files == nil {
		log.Info("Prompt file watcher disabled")
		return &PromptWatcherHandle{}, nil
	}

	w, err := watcher.New(log.Logger, watcher.Options{IgnoreHidden: true})
	if err != nil {
		return nil, err
	}

	dir := storeHandle.Files.PromptsDir()
	if err := w.Watch(dir); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("Prompt watcher error", "error", err)
		}
	}()
	go watcher.SyncPrompts(ctx, w, searchService, log.Logger)

	log.Info("Prompt file watcher started", "path", dir)

	return &PromptWatcherHandle{
		Watcher: w,
		cancel:  cancel,
	}, nil
}
