package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/imggen/imggen-server/internal/domain"
)

func (s *Server) registerGenerationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "generateImages",
		Method:      http.MethodPost,
		Path:        "/api/v1/prompts/{id}/generate",
		Summary:     "Generate images",
		Description: "Generates count images from the prompt with extra tags appended for this call only",
		Tags:        []string{"Generator"},
	}, s.handleGenerate)

	huma.Register(s.api, huma.Operation{
		OperationID: "generateTempImage",
		Method:      http.MethodPost,
		Path:        "/api/v1/prompts/{id}/generate-temp",
		Summary:     "Generate one trial image",
		Description: "Generates a single image without changing the prompt's preview",
		Tags:        []string{"Generator"},
	}, s.handleGenerateTemp)
}

// GenerateRequest is the body of a generation call.
type GenerateRequest struct {
	Tags  []string `json:"tags,omitempty" doc:"Extra tags appended to the prompt text"`
	Count int      `json:"count,omitempty" minimum:"0" doc:"Number of images, default 1"`
}

// GenerateInput wraps the generate request for Huma.
type GenerateInput struct {
	ID   string          `path:"id" doc:"Prompt ID"`
	Body GenerateRequest `required:"false"`
}

// GenerateTempRequest is the body of a trial generation.
type GenerateTempRequest struct {
	Tags []string `json:"tags,omitempty"`
}

// GenerateTempInput wraps the trial generation request for Huma.
type GenerateTempInput struct {
	ID   string              `path:"id" doc:"Prompt ID"`
	Body GenerateTempRequest `required:"false"`
}

// ImagesResponse contains generated images in backend order.
type ImagesResponse struct {
	Images []*domain.Image `json:"images"`
}

// ImagesOutput wraps generated images.
type ImagesOutput struct {
	Body ImagesResponse
}

func (s *Server) handleGenerate(ctx context.Context, input *GenerateInput) (*ImagesOutput, error) {
	imgs, err := s.services.Generation.Generate(ctx, input.ID, input.Body.Tags, input.Body.Count)
	if err != nil {
		return nil, err
	}
	return &ImagesOutput{Body: ImagesResponse{Images: imgs}}, nil
}

func (s *Server) handleGenerateTemp(ctx context.Context, input *GenerateTempInput) (*ImagesOutput, error) {
	imgs, err := s.services.Generation.GenerateTemp(ctx, input.ID, input.Body.Tags)
	if err != nil {
		return nil, err
	}
	return &ImagesOutput{Body: ImagesResponse{Images: imgs}}, nil
}
