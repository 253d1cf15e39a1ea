// Package service implements imggen's operations on prompts, tags, images,
// and generation on top of the record store and image storage.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/imggen/imggen-server/internal/domain"
	domainerrors "github.com/imggen/imggen-server/internal/errors"
	"github.com/imggen/imggen-server/internal/store"
)

// PromptIndexer keeps a secondary index in step with prompt writes.
// Implementations log their own failures; indexing never fails a write.
type PromptIndexer interface {
	IndexPrompt(ctx context.Context, p *domain.Prompt)
	RemovePrompt(ctx context.Context, id string)
}

type noopIndexer struct{}

func (noopIndexer) IndexPrompt(context.Context, *domain.Prompt) {}
func (noopIndexer) RemovePrompt(context.Context, string)        {}

// HistoryStore persists generation history rows.
type HistoryStore interface {
	Record(ctx context.Context, rec *domain.GenerationRecord) error
	ListForPrompt(ctx context.Context, promptID string, limit int) ([]*domain.GenerationRecord, error)
	DeleteForPrompt(ctx context.Context, promptID string) (int64, error)
}

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

func systemClock() time.Time {
	// Millisecond precision matches timestamps in existing record files.
	return time.Now().UTC().Truncate(time.Millisecond)
}

// promptErr translates store errors for prompt reads and writes.
func promptErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound("Prompt not found")
	default:
		var derr *domainerrors.Error
		if errors.As(err, &derr) {
			return err
		}
		return domainerrors.Storage(err, "prompt storage failed")
	}
}
