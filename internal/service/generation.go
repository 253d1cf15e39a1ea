package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/imggen/imggen-server/internal/domain"
	domainerrors "github.com/imggen/imggen-server/internal/errors"
	"github.com/imggen/imggen-server/internal/id"
	"github.com/imggen/imggen-server/internal/media/images"
	"github.com/imggen/imggen-server/internal/metrics"
	"github.com/imggen/imggen-server/internal/sdapi"
)

// DefaultMaxBatch caps images per request when no limit is configured.
const DefaultMaxBatch = 8

// Backend is the image generation API.
type Backend interface {
	Txt2Img(ctx context.Context, req sdapi.Request) ([][]byte, error)
	Available(ctx context.Context) bool
	Models(ctx context.Context) ([]sdapi.Model, error)
	CurrentModel(ctx context.Context) (string, map[string]any, error)
}

// GenerationObserver receives one observation per generation call.
type GenerationObserver interface {
	ObserveGeneration(kind string, ok bool, saved int, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveGeneration(string, bool, int, time.Duration) {}

// GenerationService turns a stored prompt into images: one backend call
// per request, every returned image saved with a thumbnail.
type GenerationService struct {
	prompts  *PromptService
	imageSvc *ImageService
	images   *images.Storage
	backend  Backend
	history  HistoryStore
	observer GenerationObserver
	logger   *slog.Logger
	maxBatch int
	now      Clock
}

// GenerationDeps groups the collaborators of GenerationService.
type GenerationDeps struct {
	Prompts  *PromptService
	Images   *ImageService
	Storage  *images.Storage
	Backend  Backend
	History  HistoryStore       // optional
	Observer GenerationObserver // optional
	Logger   *slog.Logger
	MaxBatch int
}

// NewGenerationService creates a new generation service.
func NewGenerationService(deps GenerationDeps) *GenerationService {
	s := &GenerationService{
		prompts:  deps.Prompts,
		imageSvc: deps.Images,
		images:   deps.Storage,
		backend:  deps.Backend,
		history:  deps.History,
		observer: deps.Observer,
		logger:   deps.Logger,
		maxBatch: deps.MaxBatch,
		now:      systemClock,
	}
	if s.observer == nil {
		s.observer = noopObserver{}
	}
	if s.maxBatch < 1 {
		s.maxBatch = DefaultMaxBatch
	}
	return s
}

// Generate produces count images for the prompt, with extraTags appended
// to the prompt text for this call only. The first image of the first
// successful generation becomes the prompt's preview.
func (s *GenerationService) Generate(ctx context.Context, promptID string, extraTags []string, count int) ([]*domain.Image, error) {
	if count < 1 {
		count = 1
	}
	return s.run(ctx, promptID, extraTags, count, false)
}

// GenerateTemp produces a single image without touching the preview.
func (s *GenerationService) GenerateTemp(ctx context.Context, promptID string, extraTags []string) ([]*domain.Image, error) {
	return s.run(ctx, promptID, extraTags, 1, true)
}

func (s *GenerationService) run(ctx context.Context, promptID string, extraTags []string, count int, temporary bool) ([]*domain.Image, error) {
	p, err := s.prompts.Get(ctx, promptID)
	if err != nil {
		return nil, err
	}
	if count > s.maxBatch {
		return nil, domainerrors.Validationf("count must be at most %d", s.maxBatch)
	}

	req := sdapi.Request{
		Prompt:         EffectivePrompt(p.Prompt, extraTags),
		NegativePrompt: p.NegativePrompt,
		Seed:           p.Seed,
		BatchSize:      count,
	}
	rec := &domain.GenerationRecord{
		ID:              id.MustGenerate("gen"),
		PromptID:        p.ID,
		EffectivePrompt: req.Prompt,
		NegativePrompt:  req.NegativePrompt,
		Seed:            req.Seed,
		Requested:       count,
		Temporary:       temporary,
		CreatedAt:       s.now(),
	}

	log := s.logger.With("prompt_id", p.ID, "count", count, "temporary", temporary)
	log.Info("generating images")

	start := time.Now()
	saved, err := s.generate(ctx, p.ID, req)
	elapsed := time.Since(start)

	rec.Saved = len(saved)
	rec.DurationMS = elapsed.Milliseconds()
	rec.Status = domain.GenerationSucceeded
	if err != nil {
		rec.Status = domain.GenerationFailed
		rec.Error = err.Error()
	}
	s.record(ctx, rec)
	s.observer.ObserveGeneration(kind(temporary), err == nil, len(saved), elapsed)

	if err != nil {
		log.Error("generation failed", "saved", len(saved), "error", err)
		return nil, err
	}
	log.Info("generation complete", "saved", len(saved), "duration_ms", rec.DurationMS)

	if !temporary && len(saved) > 0 {
		if _, err := s.imageSvc.SetInitialPreview(ctx, p.ID, saved[0]); err != nil {
			log.Warn("failed to set initial preview", "error", err)
		}
	}
	return saved, nil
}

// generate calls the backend once and saves every returned image in order.
// A save failure stops the loop; images saved before it stay on disk.
func (s *GenerationService) generate(ctx context.Context, promptID string, req sdapi.Request) ([]*domain.Image, error) {
	blobs, err := s.backend.Txt2Img(ctx, req)
	if err != nil {
		return nil, generationErr(err)
	}

	now := s.now()
	saved := make([]*domain.Image, 0, len(blobs))
	for i, data := range blobs {
		name, err := id.ImageFilename(now, i)
		if err != nil {
			return saved, domainerrors.Storage(err, "failed to name image")
		}
		img, err := s.images.Save(promptID, name, data)
		if err != nil {
			return saved, domainerrors.Storagef(err, "failed to save image %d of %d", i+1, len(blobs))
		}
		saved = append(saved, img)
	}
	return saved, nil
}

func (s *GenerationService) record(ctx context.Context, rec *domain.GenerationRecord) {
	if s.history == nil {
		return
	}
	// The request may already be cancelled; history is written regardless.
	if err := s.history.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("failed to record generation", "prompt_id", rec.PromptID, "error", err)
	}
}

// History returns the prompt's most recent generations, newest first.
func (s *GenerationService) History(ctx context.Context, promptID string, limit int) ([]*domain.GenerationRecord, error) {
	if _, err := s.prompts.Get(ctx, promptID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []*domain.GenerationRecord{}, nil
	}
	recs, err := s.history.ListForPrompt(ctx, promptID, limit)
	if err != nil {
		return nil, domainerrors.Storage(err, "failed to read generation history")
	}
	return recs, nil
}

// Status reports whether the generation backend answers.
func (s *GenerationService) Status(ctx context.Context) bool {
	return s.backend.Available(ctx)
}

// Models lists the backend's installed checkpoints.
func (s *GenerationService) Models(ctx context.Context) ([]sdapi.Model, error) {
	models, err := s.backend.Models(ctx)
	if err != nil {
		return nil, generationErr(err)
	}
	return models, nil
}

// CurrentModel returns the loaded checkpoint and all backend settings.
func (s *GenerationService) CurrentModel(ctx context.Context) (string, map[string]any, error) {
	model, settings, err := s.backend.CurrentModel(ctx)
	if err != nil {
		return "", nil, generationErr(err)
	}
	return model, settings, nil
}

// EffectivePrompt appends the space-joined tags to the prompt text, in
// the order given. Blank tags are skipped; repeats are kept.
func EffectivePrompt(prompt string, tags []string) string {
	parts := make([]string, 0, len(tags)+1)
	parts = append(parts, prompt)
	for _, tag := range tags {
		if strings.TrimSpace(tag) != "" {
			parts = append(parts, tag)
		}
	}
	return strings.Join(parts, " ")
}

func generationErr(err error) error {
	var apiErr *sdapi.Error
	switch {
	case sdapi.IsUnavailable(err):
		return domainerrors.Generation(err, "Stable Diffusion API is not available")
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		return domainerrors.Generation(err, "image generation failed: "+apiErr.Detail)
	default:
		return domainerrors.Generation(err, "image generation failed")
	}
}

func kind(temporary bool) string {
	if temporary {
		return metrics.KindTemporary
	}
	return metrics.KindBatch
}
