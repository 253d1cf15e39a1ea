package watcher

import (
	"context"
	"log/slog"

	"github.com/imggen/imggen-server/internal/store/filestore"
)

// PromptRefresher re-reads one prompt record and updates derived state.
type PromptRefresher interface {
	Refresh(ctx context.Context, promptID string)
}

// SyncPrompts forwards record file changes to r until ctx ends. Both
// changes and removals go through Refresh, which looks the record up again.
func SyncPrompts(ctx context.Context, w *Watcher, r PromptRefresher, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.Errors():
			logger.Warn("prompt watcher error", "error", err)
		case ev := <-w.Events():
			promptID, ok := filestore.PromptIDFromPath(ev.Path)
			if !ok {
				continue
			}
			logger.Debug("prompt record changed on disk", "prompt_id", promptID, "event", ev.Type.String())
			r.Refresh(ctx, promptID)
		}
	}
}
