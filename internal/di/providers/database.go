package providers

import (
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/imggen/imggen-server/internal/config"
	"github.com/imggen/imggen-server/internal/logger"
	"github.com/imggen/imggen-server/internal/store"
	"github.com/imggen/imggen-server/internal/store/filestore"
	"github.com/imggen/imggen-server/internal/store/sqlite"
)

// StoreHandle wraps the record store with shutdown capability.
type StoreHandle struct {
	store.Store
	// Files is set when the file backend is active; the prompt watcher needs
	// its directory.
	Files *filestore.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured record backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Storage.Backend {
	case config.BackendBadger:
		dbPath := filepath.Join(cfg.Storage.DataPath, "db")
		db, err := store.OpenBadger(dbPath, log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "backend", cfg.Storage.Backend, "path", dbPath)
		return &StoreHandle{Store: db}, nil

	case config.BackendFiles:
		files, err := filestore.New(cfg.Storage.DataPath, log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Record store initialized", "backend", cfg.Storage.Backend, "path", files.PromptsDir())
		return &StoreHandle{Store: files, Files: files}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Storage.Backend)
	}
}

// HistoryHandle wraps the generation history database.
type HistoryHandle struct {
	*sqlite.HistoryStore
}

// Shutdown implements do.Shutdownable.
func (h *HistoryHandle) Shutdown() error {
	return h.Close()
}

// ProvideHistory opens the SQLite generation history.
func ProvideHistory(i do.Injector) (*HistoryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Storage.DataPath, "history.db")
	hist, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("history database: %w", err)
	}

	log.Info("Generation history initialized", "path", dbPath)
	return &HistoryHandle{HistoryStore: hist}, nil
}
