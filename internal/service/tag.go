package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/imggen/imggen-server/internal/domain"
	domainerrors "github.com/imggen/imggen-server/internal/errors"
	"github.com/imggen/imggen-server/internal/normalize"
	"github.com/imggen/imggen-server/internal/store"
	"github.com/imggen/imggen-server/internal/validation"
)

// TagService owns the global tag catalog: a sorted, duplicate-free list of
// tag strings offered for reuse across prompts.
//
// The catalog record is created empty on first use. Nothing is cached; every
// call reads the record, so concurrent writers race on the whole record and
// the last write wins.
type TagService struct {
	store  store.Store
	logger *slog.Logger

	initMu sync.Mutex
	ready  bool
}

// NewTagService creates a new tag service.
func NewTagService(st store.Store, logger *slog.Logger) *TagService {
	return &TagService{store: st, logger: logger}
}

// ErrTagRequired is returned for tags that are blank after trimming.
var ErrTagRequired = domainerrors.Validation("Tag value is required")

// ListTags returns the sorted catalog, empty if nothing was ever added.
func (s *TagService) ListTags(ctx context.Context) ([]string, error) {
	return s.load(ctx)
}

// AddTag inserts tag if absent and returns the full catalog. Adding an
// existing tag changes nothing.
func (s *TagService) AddTag(ctx context.Context, raw string) ([]string, error) {
	tag := normalize.Tag(raw)
	if !validation.ValidTag(tag) {
		return nil, ErrTagRequired
	}

	tags, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if _, found := slices.BinarySearch(tags, tag); found {
		return tags, nil
	}

	tags = normalize.SortedSet(tags, []string{tag})
	if err := s.save(ctx, tags); err != nil {
		return nil, err
	}
	s.logger.Debug("tag added to catalog", "tag", tag)
	return tags, nil
}

// RemoveTag drops tag from the catalog. Removing an absent tag is not an
// error. Prompts carrying the tag keep it.
func (s *TagService) RemoveTag(ctx context.Context, raw string) ([]string, error) {
	tag := normalize.Tag(raw)

	tags, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i, found := slices.BinarySearch(tags, tag)
	if !found {
		return tags, nil
	}

	tags = slices.Delete(tags, i, i+1)
	if err := s.save(ctx, tags); err != nil {
		return nil, err
	}
	s.logger.Debug("tag removed from catalog", "tag", tag)
	return tags, nil
}

// ImportFrom merges every tag used by prompts into the catalog.
func (s *TagService) ImportFrom(ctx context.Context, prompts []*domain.Prompt) ([]string, error) {
	tags, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	merged := tags
	for _, p := range prompts {
		merged = normalize.SortedSet(merged, p.Tags)
	}
	if err := s.save(ctx, merged); err != nil {
		return nil, err
	}
	s.logger.Info("imported tags into catalog", "before", len(tags), "after", len(merged))
	return merged, nil
}

// ensure writes an empty catalog the first time the service is used.
func (s *TagService) ensure(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.ready {
		return nil
	}

	_, err := s.store.LoadTagCatalog(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if err := s.store.SaveTagCatalog(ctx, []string{}); err != nil {
			return domainerrors.Storage(err, "failed to create tag catalog")
		}
	case err != nil:
		return domainerrors.Storage(err, "failed to read tag catalog")
	}
	s.ready = true
	return nil
}

// load returns the catalog sorted and deduplicated, repairing hand edits.
func (s *TagService) load(ctx context.Context) ([]string, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	tags, err := s.store.LoadTagCatalog(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, domainerrors.Storage(err, "failed to read tag catalog")
	}
	return normalize.SortedSet(tags), nil
}

func (s *TagService) save(ctx context.Context, tags []string) error {
	if err := s.store.SaveTagCatalog(ctx, tags); err != nil {
		return domainerrors.Storage(err, "failed to write tag catalog")
	}
	return nil
}

// PromptLister is the slice of PromptService the catalog import needs.
type PromptLister interface {
	List(ctx context.Context) ([]*domain.Prompt, error)
}

// ImportExisting merges the tags of every stored prompt into the catalog.
func (s *TagService) ImportExisting(ctx context.Context, prompts PromptLister) ([]string, error) {
	all, err := prompts.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.ImportFrom(ctx, all)
}
