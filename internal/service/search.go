package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/imggen/imggen-server/internal/domain"
	domainerrors "github.com/imggen/imggen-server/internal/errors"
	"github.com/imggen/imggen-server/internal/search"
	"github.com/imggen/imggen-server/internal/store"
)

// SearchService bridges the search index with the record store. It is the
// PromptIndexer wired into PromptService.
type SearchService struct {
	index  *search.SearchIndex
	store  store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, st store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{index: index, store: st, logger: logger}
}

// Search runs a full-text query over prompt names, text, and tags.
func (s *SearchService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	res, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}
	return res, nil
}

// IndexPrompt indexes a single prompt. Failures are logged; the index is
// rebuilt from the store on the next reindex.
func (s *SearchService) IndexPrompt(_ context.Context, p *domain.Prompt) {
	if err := s.index.IndexDocument(search.NewPromptDocument(p)); err != nil {
		s.logger.Warn("failed to index prompt", "prompt_id", p.ID, "error", err)
		return
	}
	s.logger.Debug("indexed prompt", "prompt_id", p.ID)
}

// RemovePrompt drops a prompt from the index.
func (s *SearchService) RemovePrompt(_ context.Context, promptID string) {
	if err := s.index.DeleteDocument(promptID); err != nil {
		s.logger.Warn("failed to remove prompt from index", "prompt_id", promptID, "error", err)
	}
}

// Refresh re-reads one prompt from the store and indexes it, or removes it
// when the record is gone. Used by the file watcher.
func (s *SearchService) Refresh(ctx context.Context, promptID string) {
	p, err := s.store.GetPrompt(ctx, promptID)
	if err != nil {
		s.RemovePrompt(ctx, promptID)
		return
	}
	p.Normalize()
	s.IndexPrompt(ctx, p)
}

// Reindex rebuilds the index from every stored prompt.
func (s *SearchService) Reindex(ctx context.Context) error {
	prompts, err := s.store.ListPrompts(ctx)
	if err != nil {
		return fmt.Errorf("list prompts: %w", err)
	}
	docs := make([]*search.PromptDocument, 0, len(prompts))
	for _, p := range prompts {
		p.Normalize()
		docs = append(docs, search.NewPromptDocument(p))
	}
	if err := s.index.Rebuild(docs); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	s.logger.Info("search index rebuilt", "prompts", len(docs))
	return nil
}

// Count returns the number of indexed prompts.
func (s *SearchService) Count(_ context.Context) (uint64, error) {
	return s.index.DocumentCount()
}
