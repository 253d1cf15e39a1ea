package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/imggen/imggen-server/internal/domain"
	domainerrors "github.com/imggen/imggen-server/internal/errors"
	"github.com/imggen/imggen-server/internal/media/images"
)

// ImageService handles image listing, deletion, and the prompt preview
// pointer.
type ImageService struct {
	images  *images.Storage
	prompts *PromptService
	logger  *slog.Logger
}

// NewImageService creates a new image service.
func NewImageService(imgs *images.Storage, prompts *PromptService, logger *slog.Logger) *ImageService {
	return &ImageService{images: imgs, prompts: prompts, logger: logger}
}

// List returns the prompt's images, newest first. A prompt that never
// generated anything has an empty list.
func (s *ImageService) List(_ context.Context, promptID string) ([]*domain.Image, error) {
	imgs, err := s.images.List(promptID)
	if err != nil {
		return nil, domainerrors.Storage(err, "failed to list images")
	}
	return imgs, nil
}

// SetPreview points the prompt's preview at the image whose name starts
// with imageID. UpdatedAt is left alone.
func (s *ImageService) SetPreview(ctx context.Context, promptID, imageID string) (*domain.Prompt, error) {
	img, err := s.find(promptID, imageID)
	if err != nil {
		return nil, err
	}
	p, err := s.prompts.Get(ctx, promptID)
	if err != nil {
		return nil, err
	}

	p.SetPreview(img)
	if err := s.prompts.save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("preview set", "prompt_id", promptID, "image_id", img.ID)
	return p, nil
}

// SetInitialPreview gives a prompt without a preview the supplied image.
// A prompt that already has one is returned unchanged.
func (s *ImageService) SetInitialPreview(ctx context.Context, promptID string, img *domain.Image) (*domain.Prompt, error) {
	p, err := s.prompts.Get(ctx, promptID)
	if err != nil {
		return nil, err
	}
	if p.PreviewImage != nil || img == nil {
		return p, nil
	}
	p.SetPreview(img)
	if err := s.prompts.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes an image and its thumbnail. When the deleted image was the
// preview, the newest remaining image takes its place, or the preview is
// cleared if none is left.
func (s *ImageService) Delete(ctx context.Context, promptID, imageID string) error {
	img, err := s.find(promptID, imageID)
	if err != nil {
		return err
	}
	if err := s.images.Delete(promptID, img.Filename); err != nil {
		if errors.Is(err, images.ErrNotFound) {
			return domainerrors.NotFound("Image not found")
		}
		return domainerrors.Storage(err, "failed to delete image")
	}
	s.logger.Info("image deleted", "prompt_id", promptID, "image_id", img.ID)

	p, err := s.prompts.Get(ctx, promptID)
	if errors.Is(err, domainerrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !p.PreviewIs(img.Filename) {
		return nil
	}

	remaining, err := s.images.List(promptID)
	if err != nil {
		return domainerrors.Storage(err, "failed to list images")
	}
	var next *domain.Image
	if len(remaining) > 0 {
		next = remaining[0]
	}
	p.SetPreview(next)
	return s.prompts.save(ctx, p)
}

func (s *ImageService) find(promptID, imageID string) (*domain.Image, error) {
	img, err := s.images.Find(promptID, imageID)
	switch {
	case errors.Is(err, images.ErrNoDirectory):
		return nil, domainerrors.NotFound("Prompt not found")
	case errors.Is(err, images.ErrNotFound):
		return nil, domainerrors.NotFound("Image not found")
	case err != nil:
		return nil, domainerrors.Storage(err, "failed to read images")
	}
	return img, nil
}
