package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/imggen/imggen-server/internal/domain"
)

func (s *Server) registerImageRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "setPreview",
		Method:      http.MethodPost,
		Path:        "/api/v1/prompts/{id}/preview/{imageId}",
		Summary:     "Set preview image",
		Description: "Points the prompt's preview at the image whose file name starts with imageId",
		Tags:        []string{"Images"},
	}, s.handleSetPreview)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteImage",
		Method:      http.MethodDelete,
		Path:        "/api/v1/prompts/{id}/images/{imageId}",
		Summary:     "Delete image",
		Description: "Deletes an image and its thumbnail; a deleted preview falls back to the newest remaining image",
		Tags:        []string{"Images"},
	}, s.handleDeleteImage)
}

// ImageInput identifies one image of a prompt.
type ImageInput struct {
	ID      string `path:"id" doc:"Prompt ID"`
	ImageID string `path:"imageId" doc:"Image ID or file name prefix"`
}

// PreviewResponse contains the new preview pointers and the prompt.
type PreviewResponse struct {
	PreviewImage     *string        `json:"previewImage"`
	PreviewThumbnail *string        `json:"previewThumbnail"`
	Prompt           *domain.Prompt `json:"prompt"`
}

// PreviewOutput wraps the preview response for Huma.
type PreviewOutput struct {
	Body PreviewResponse
}

func (s *Server) handleSetPreview(ctx context.Context, input *ImageInput) (*PreviewOutput, error) {
	p, err := s.services.Images.SetPreview(ctx, input.ID, input.ImageID)
	if err != nil {
		return nil, err
	}
	return &PreviewOutput{Body: PreviewResponse{
		PreviewImage:     p.PreviewImage,
		PreviewThumbnail: p.PreviewThumbnail,
		Prompt:           p,
	}}, nil
}

func (s *Server) handleDeleteImage(ctx context.Context, input *ImageInput) (*MessageOutput, error) {
	if err := s.services.Images.Delete(ctx, input.ID, input.ImageID); err != nil {
		return nil, err
	}
	return newMessage("Image deleted successfully"), nil
}
