package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/imggen/imggen-server/internal/domain"
	domainerrors "github.com/imggen/imggen-server/internal/errors"
	"github.com/imggen/imggen-server/internal/id"
	"github.com/imggen/imggen-server/internal/media/images"
	"github.com/imggen/imggen-server/internal/normalize"
	"github.com/imggen/imggen-server/internal/store"
	"github.com/imggen/imggen-server/internal/validation"
)

// defaultNameLayout renders creation time the way prompt names have always
// been generated ("Prompt 3/14/2025, 9:26:53 AM").
const defaultNameLayout = "1/2/2006, 3:04:05 PM"

// PromptService manages prompt records and their lifecycle.
type PromptService struct {
	store   store.Store
	images  *images.Storage
	logger  *slog.Logger
	now     Clock
	indexer PromptIndexer
	history HistoryStore
}

// NewPromptService creates a new prompt service.
func NewPromptService(st store.Store, imgs *images.Storage, logger *slog.Logger) *PromptService {
	return &PromptService{
		store:   st,
		images:  imgs,
		logger:  logger,
		now:     systemClock,
		indexer: noopIndexer{},
	}
}

// SetIndexer wires the search index. Called once during startup.
func (s *PromptService) SetIndexer(idx PromptIndexer) {
	if idx == nil {
		idx = noopIndexer{}
	}
	s.indexer = idx
}

// SetHistory wires the generation history so deleting a prompt drops its rows.
func (s *PromptService) SetHistory(h HistoryStore) {
	s.history = h
}

// Create stores a new prompt. Only the prompt text is required.
func (s *PromptService) Create(ctx context.Context, req domain.CreatePrompt) (*domain.Prompt, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domainerrors.Validation("prompt is required")
	}

	now := s.now()
	p := &domain.Prompt{
		ID:        id.NewPromptID(),
		Prompt:    req.Prompt,
		Seed:      domain.DefaultSeed,
		Name:      "Prompt " + now.Local().Format(defaultNameLayout),
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.NegativePrompt != nil {
		p.NegativePrompt = *req.NegativePrompt
	}
	if req.Seed != nil {
		p.Seed = *req.Seed
	}
	if req.Name != nil && *req.Name != "" {
		p.Name = *req.Name
	}

	if err := s.store.SavePrompt(ctx, p); err != nil {
		return nil, promptErr(err)
	}
	s.indexer.IndexPrompt(ctx, p)

	s.logger.Info("prompt created", "prompt_id", p.ID, "name", p.Name)
	return p, nil
}

// Get returns one prompt.
func (s *PromptService) Get(ctx context.Context, promptID string) (*domain.Prompt, error) {
	p, err := s.store.GetPrompt(ctx, promptID)
	if err != nil {
		return nil, promptErr(err)
	}
	p.Normalize()
	return p, nil
}

// List returns every prompt, newest first.
func (s *PromptService) List(ctx context.Context) ([]*domain.Prompt, error) {
	prompts, err := s.store.ListPrompts(ctx)
	if err != nil {
		return nil, domainerrors.Storage(err, "failed to list prompts")
	}
	for _, p := range prompts {
		p.Normalize()
	}
	slices.SortStableFunc(prompts, func(a, b *domain.Prompt) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return prompts, nil
}

// ListTagged returns prompts carrying tag, newest first. An empty tag
// returns everything.
func (s *PromptService) ListTagged(ctx context.Context, tag string) ([]*domain.Prompt, error) {
	prompts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	tag = normalize.Tag(tag)
	if tag == "" {
		return prompts, nil
	}
	return slices.DeleteFunc(prompts, func(p *domain.Prompt) bool { return !p.HasTag(tag) }), nil
}

// Update overlays patch onto the stored prompt and refreshes UpdatedAt.
func (s *PromptService) Update(ctx context.Context, promptID string, patch domain.PromptPatch) (*domain.Prompt, error) {
	p, err := s.Get(ctx, promptID)
	if err != nil {
		return nil, err
	}

	patch.Apply(p)
	p.UpdatedAt = s.now()

	if err := s.store.SavePrompt(ctx, p); err != nil {
		return nil, promptErr(err)
	}
	s.indexer.IndexPrompt(ctx, p)
	return p, nil
}

// Delete removes the record and then the prompt's image directory. The two
// steps are independent; a failure in the second leaves orphaned images.
func (s *PromptService) Delete(ctx context.Context, promptID string) error {
	if err := s.store.DeletePrompt(ctx, promptID); err != nil {
		return promptErr(err)
	}
	s.indexer.RemovePrompt(ctx, promptID)

	if s.history != nil {
		if _, err := s.history.DeleteForPrompt(ctx, promptID); err != nil {
			s.logger.Warn("failed to delete generation history", "prompt_id", promptID, "error", err)
		}
	}

	if err := s.images.RemoveAll(promptID); err != nil {
		return domainerrors.Storage(err, "prompt deleted but its images could not be removed")
	}

	s.logger.Info("prompt deleted", "prompt_id", promptID)
	return nil
}

// AddTag attaches tag to the prompt. Adding a tag the prompt already has
// leaves the record untouched.
func (s *PromptService) AddTag(ctx context.Context, promptID, raw string) (*domain.Prompt, error) {
	tag := normalize.Tag(raw)
	if !validation.ValidTag(tag) {
		return nil, ErrTagRequired
	}

	p, err := s.Get(ctx, promptID)
	if err != nil {
		return nil, err
	}
	if p.HasTag(tag) {
		return p, nil
	}

	p.Tags = append(p.Tags, tag)
	p.UpdatedAt = s.now()
	if err := s.store.SavePrompt(ctx, p); err != nil {
		return nil, promptErr(err)
	}
	s.indexer.IndexPrompt(ctx, p)
	return p, nil
}

// RemoveTag detaches tag from the prompt. The global catalog is not touched.
func (s *PromptService) RemoveTag(ctx context.Context, promptID, raw string) (*domain.Prompt, error) {
	tag := normalize.Tag(raw)

	p, err := s.Get(ctx, promptID)
	if err != nil {
		return nil, err
	}
	if !p.HasTag(tag) {
		return p, nil
	}

	p.Tags = slices.DeleteFunc(p.Tags, func(t string) bool { return t == tag })
	p.UpdatedAt = s.now()
	if err := s.store.SavePrompt(ctx, p); err != nil {
		return nil, promptErr(err)
	}
	s.indexer.IndexPrompt(ctx, p)
	return p, nil
}

// AllUniqueTags returns the sorted union of every prompt's tags.
func (s *PromptService) AllUniqueTags(ctx context.Context) ([]string, error) {
	prompts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	sets := make([][]string, 0, len(prompts))
	for _, p := range prompts {
		sets = append(sets, p.Tags)
	}
	return normalize.SortedSet(sets...), nil
}

// GetWithImages returns the prompt together with its images, newest first.
func (s *PromptService) GetWithImages(ctx context.Context, promptID string) (*domain.Prompt, []*domain.Image, error) {
	p, err := s.Get(ctx, promptID)
	if err != nil {
		return nil, nil, err
	}
	imgs, err := s.images.List(promptID)
	if err != nil {
		return nil, nil, domainerrors.Storage(err, "failed to list images")
	}
	return p, imgs, nil
}

// save persists a prompt modified by another service.
func (s *PromptService) save(ctx context.Context, p *domain.Prompt) error {
	if err := s.store.SavePrompt(ctx, p); err != nil {
		return promptErr(err)
	}
	s.indexer.IndexPrompt(ctx, p)
	return nil
}
