package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/imggen/imggen-server/internal/domain"
	"github.com/imggen/imggen-server/internal/search"
)

func (s *Server) registerPromptRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPrompts",
		Method:      http.MethodGet,
		Path:        "/api/v1/prompts",
		Summary:     "List prompts",
		Description: "Returns all prompts, newest first, optionally filtered by tag",
		Tags:        []string{"Prompts"},
	}, s.handleListPrompts)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPrompt",
		Method:        http.MethodPost,
		Path:          "/api/v1/prompts",
		Summary:       "Create prompt",
		Description:   "Creates a prompt. Only the prompt text is required",
		Tags:          []string{"Prompts"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreatePrompt)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchPrompts",
		Method:      http.MethodGet,
		Path:        "/api/v1/prompts/search",
		Summary:     "Search prompts",
		Description: "Full-text search over prompt names, text, and tags",
		Tags:        []string{"Prompts"},
	}, s.handleSearchPrompts)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPrompt",
		Method:      http.MethodGet,
		Path:        "/api/v1/prompts/{id}",
		Summary:     "Get prompt",
		Tags:        []string{"Prompts"},
	}, s.handleGetPrompt)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePrompt",
		Method:      http.MethodPut,
		Path:        "/api/v1/prompts/{id}",
		Summary:     "Update prompt",
		Description: "Updates prompt text, negative prompt, seed, and name",
		Tags:        []string{"Prompts"},
	}, s.handleUpdatePrompt)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePrompt",
		Method:      http.MethodDelete,
		Path:        "/api/v1/prompts/{id}",
		Summary:     "Delete prompt",
		Description: "Deletes the prompt and every image generated for it",
		Tags:        []string{"Prompts"},
	}, s.handleDeletePrompt)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPromptImages",
		Method:      http.MethodGet,
		Path:        "/api/v1/prompts/{id}/images",
		Summary:     "Get prompt with images",
		Tags:        []string{"Prompts", "Images"},
	}, s.handleGetPromptImages)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGenerations",
		Method:      http.MethodGet,
		Path:        "/api/v1/prompts/{id}/generations",
		Summary:     "Generation history",
		Description: "Returns the prompt's most recent generation calls, newest first",
		Tags:        []string{"Prompts", "Generator"},
	}, s.handleListGenerations)
}

// === DTOs ===

// PromptIDInput identifies a prompt by path.
type PromptIDInput struct {
	ID string `path:"id" doc:"Prompt ID"`
}

// ListPromptsInput contains parameters for listing prompts.
type ListPromptsInput struct {
	Tag string `query:"tag" doc:"Only prompts carrying this tag"`
}

// CreatePromptRequest is the request body for creating a prompt.
type CreatePromptRequest struct {
	Prompt         string  `json:"prompt" validate:"notblank" doc:"Prompt text"`
	NegativePrompt *string `json:"negativePrompt,omitempty" doc:"Negative prompt text"`
	Seed           *int64  `json:"seed,omitempty" doc:"Seed, -1 for random"`
	Name           *string `json:"name,omitempty" doc:"Display name"`
}

// CreatePromptInput wraps the create request for Huma.
type CreatePromptInput struct {
	Body CreatePromptRequest
}

// UpdatePromptRequest is a partial update. Empty prompt and name are ignored.
type UpdatePromptRequest struct {
	Prompt         *string `json:"prompt,omitempty"`
	NegativePrompt *string `json:"negativePrompt,omitempty"`
	Seed           *int64  `json:"seed,omitempty"`
	Name           *string `json:"name,omitempty"`
}

// UpdatePromptInput wraps the update request for Huma.
type UpdatePromptInput struct {
	ID   string `path:"id" doc:"Prompt ID"`
	Body UpdatePromptRequest
}

// SearchPromptsInput contains search parameters.
type SearchPromptsInput struct {
	Q      string   `query:"q" doc:"Search text"`
	Tags   []string `query:"tag" doc:"Required tags, comma separated"`
	Limit  int      `query:"limit" default:"20" minimum:"1" maximum:"100"`
	Offset int      `query:"offset" minimum:"0"`
}

// ListGenerationsInput contains history parameters.
type ListGenerationsInput struct {
	ID    string `path:"id" doc:"Prompt ID"`
	Limit int    `query:"limit" default:"50" minimum:"1" maximum:"500"`
}

// PromptResponse contains a single prompt.
type PromptResponse struct {
	Prompt *domain.Prompt `json:"prompt"`
}

// PromptOutput wraps a single prompt.
type PromptOutput struct {
	Body PromptResponse
}

// PromptsResponse contains a prompt list.
type PromptsResponse struct {
	Prompts []*domain.Prompt `json:"prompts"`
}

// PromptsOutput wraps a prompt list.
type PromptsOutput struct {
	Body PromptsResponse
}

// PromptImagesResponse contains a prompt with its images, newest first.
type PromptImagesResponse struct {
	Prompt *domain.Prompt  `json:"prompt"`
	Images []*domain.Image `json:"images"`
}

// PromptImagesOutput wraps a prompt with its images.
type PromptImagesOutput struct {
	Body PromptImagesResponse
}

// SearchOutput wraps search results.
type SearchOutput struct {
	Body *search.Result
}

// GenerationsResponse contains generation history rows.
type GenerationsResponse struct {
	Generations []*domain.GenerationRecord `json:"generations"`
}

// GenerationsOutput wraps generation history rows.
type GenerationsOutput struct {
	Body GenerationsResponse
}

// MessageResponse carries a confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// MessageOutput wraps a confirmation message.
type MessageOutput struct {
	Body MessageResponse
}

func newPromptOutput(p *domain.Prompt) *PromptOutput {
	return &PromptOutput{Body: PromptResponse{Prompt: p}}
}

func newMessage(msg string) *MessageOutput {
	return &MessageOutput{Body: MessageResponse{Message: msg}}
}

// === Handlers ===

func (s *Server) handleListPrompts(ctx context.Context, input *ListPromptsInput) (*PromptsOutput, error) {
	prompts, err := s.services.Prompts.ListTagged(ctx, input.Tag)
	if err != nil {
		return nil, err
	}
	return &PromptsOutput{Body: PromptsResponse{Prompts: prompts}}, nil
}

func (s *Server) handleCreatePrompt(ctx context.Context, input *CreatePromptInput) (*PromptOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	p, err := s.services.Prompts.Create(ctx, domain.CreatePrompt{
		Prompt:         input.Body.Prompt,
		NegativePrompt: input.Body.NegativePrompt,
		Seed:           input.Body.Seed,
		Name:           input.Body.Name,
	})
	if err != nil {
		return nil, err
	}
	return newPromptOutput(p), nil
}

func (s *Server) handleSearchPrompts(ctx context.Context, input *SearchPromptsInput) (*SearchOutput, error) {
	if s.services.Search == nil {
		return nil, huma.Error503ServiceUnavailable("search is not available")
	}
	res, err := s.services.Search.Search(ctx, search.Params{
		Query:  input.Q,
		Tags:   input.Tags,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: res}, nil
}

func (s *Server) handleGetPrompt(ctx context.Context, input *PromptIDInput) (*PromptOutput, error) {
	p, err := s.services.Prompts.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return newPromptOutput(p), nil
}

func (s *Server) handleUpdatePrompt(ctx context.Context, input *UpdatePromptInput) (*PromptOutput, error) {
	p, err := s.services.Prompts.Update(ctx, input.ID, domain.PromptPatch{
		Prompt:         input.Body.Prompt,
		NegativePrompt: input.Body.NegativePrompt,
		Seed:           input.Body.Seed,
		Name:           input.Body.Name,
	})
	if err != nil {
		return nil, err
	}
	return newPromptOutput(p), nil
}

func (s *Server) handleDeletePrompt(ctx context.Context, input *PromptIDInput) (*MessageOutput, error) {
	if err := s.services.Prompts.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return newMessage("Prompt deleted successfully"), nil
}

func (s *Server) handleGetPromptImages(ctx context.Context, input *PromptIDInput) (*PromptImagesOutput, error) {
	p, imgs, err := s.services.Prompts.GetWithImages(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &PromptImagesOutput{Body: PromptImagesResponse{Prompt: p, Images: imgs}}, nil
}

func (s *Server) handleListGenerations(ctx context.Context, input *ListGenerationsInput) (*GenerationsOutput, error) {
	recs, err := s.services.Generation.History(ctx, input.ID, input.Limit)
	if err != nil {
		return nil, err
	}
	return &GenerationsOutput{Body: GenerationsResponse{Generations: recs}}, nil
}
