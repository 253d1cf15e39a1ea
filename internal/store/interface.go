// Package store defines persistence for prompt records and the tag catalog.
//
// Two backends implement Store: filestore (one JSON file per record, the
// default and the layout older installs already have on disk) and the
// Badger-backed store in this package. Images are not records; they live on
// the filesystem under media/images regardless of backend.
package store

import (
	"context"

	"github.com/imggen/imggen-server/internal/domain"
)

// Store persists prompt records and the tag catalog. Every write replaces
// the whole record; there is no cross-record transaction and concurrent
// writers to the same record are last-write-wins.
type Store interface {
	SavePrompt(ctx context.Context, p *domain.Prompt) error
	// GetPrompt returns ErrNotFound when no record exists.
	GetPrompt(ctx context.Context, id string) (*domain.Prompt, error)
	// ListPrompts returns every readable record in no particular order.
	ListPrompts(ctx context.Context) ([]*domain.Prompt, error)
	// DeletePrompt returns ErrNotFound when no record exists.
	DeletePrompt(ctx context.Context, id string) error

	// LoadTagCatalog returns ErrNotFound until the catalog is first saved.
	LoadTagCatalog(ctx context.Context) ([]string, error)
	SaveTagCatalog(ctx context.Context, tags []string) error

	Close() error
}
