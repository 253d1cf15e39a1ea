package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/imggen/imggen-server/internal/config"
	"github.com/imggen/imggen-server/internal/logger"
	"github.com/imggen/imggen-server/internal/media/images"
)

// ProvideImageStorage provides the per-prompt image directories.
func ProvideImageStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	imgs, err := images.NewStorage(cfg.Storage.ImagesDir(), log.Logger)
	if err != nil {
		return nil, fmt.Errorf("image storage: %w", err)
	}

	log.Info("Image storage initialized", "path", imgs.Root())
	return imgs, nil
}
