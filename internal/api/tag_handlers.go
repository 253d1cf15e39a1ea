package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/imggen/imggen-server/internal/domain"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns the global tag catalog, sorted",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "addTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags",
		Summary:     "Add tag",
		Description: "Adds a tag to the catalog; adding an existing tag changes nothing",
		Tags:        []string{"Tags"},
	}, s.handleAddTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "importTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/import",
		Summary:     "Import tags",
		Description: "Merges every tag used by a prompt into the catalog",
		Tags:        []string{"Tags"},
	}, s.handleImportTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{tag}",
		Summary:     "Remove tag",
		Description: "Removes a tag from the catalog. Prompts keep it",
		Tags:        []string{"Tags"},
	}, s.handleRemoveTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "addPromptTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/prompts/{id}/tags",
		Summary:     "Tag prompt",
		Description: "Adds the tag to the catalog and then to the prompt",
		Tags:        []string{"Tags", "Prompts"},
	}, s.handleAddPromptTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "removePromptTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/prompts/{id}/tags/{tag}",
		Summary:     "Untag prompt",
		Description: "Removes the tag from the prompt. The catalog is not changed",
		Tags:        []string{"Tags", "Prompts"},
	}, s.handleRemovePromptTag)
}

// === DTOs ===

// TagRequest carries a single tag. Blank tags are rejected by the service.
type TagRequest struct {
	Tag string `json:"tag,omitempty" doc:"Tag value"`
}

// AddTagInput wraps a catalog add for Huma.
type AddTagInput struct {
	Body TagRequest
}

// TagPathInput names a catalog tag in the path.
type TagPathInput struct {
	Tag string `path:"tag" doc:"Tag value, URL-encoded"`
}

// PromptTagInput wraps a prompt tag add for Huma.
type PromptTagInput struct {
	ID   string `path:"id" doc:"Prompt ID"`
	Body TagRequest
}

// PromptTagPathInput names a prompt and one of its tags.
type PromptTagPathInput struct {
	ID  string `path:"id" doc:"Prompt ID"`
	Tag string `path:"tag" doc:"Tag value, URL-encoded"`
}

// TagsResponse contains the catalog.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// TagsOutput wraps the catalog.
type TagsOutput struct {
	Body TagsResponse
}

// PromptTagResponse contains the prompt after a tag change, and the
// catalog when it was touched too.
type PromptTagResponse struct {
	Prompt *domain.Prompt `json:"prompt"`
	Tags   []string       `json:"tags,omitempty"`
}

// PromptTagOutput wraps the prompt tag response for Huma.
type PromptTagOutput struct {
	Body PromptTagResponse
}

func newTagsOutput(tags []string) *TagsOutput {
	return &TagsOutput{Body: TagsResponse{Tags: tags}}
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*TagsOutput, error) {
	tags, err := s.services.Tags.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	return newTagsOutput(tags), nil
}

func (s *Server) handleAddTag(ctx context.Context, input *AddTagInput) (*TagsOutput, error) {
	tags, err := s.services.Tags.AddTag(ctx, input.Body.Tag)
	if err != nil {
		return nil, err
	}
	return newTagsOutput(tags), nil
}

func (s *Server) handleImportTags(ctx context.Context, _ *struct{}) (*TagsOutput, error) {
	tags, err := s.services.Tags.ImportExisting(ctx, s.services.Prompts)
	if err != nil {
		return nil, err
	}
	return newTagsOutput(tags), nil
}

func (s *Server) handleRemoveTag(ctx context.Context, input *TagPathInput) (*TagsOutput, error) {
	tags, err := s.services.Tags.RemoveTag(ctx, input.Tag)
	if err != nil {
		return nil, err
	}
	return newTagsOutput(tags), nil
}

func (s *Server) handleAddPromptTag(ctx context.Context, input *PromptTagInput) (*PromptTagOutput, error) {
	// Reject unknown prompts before the catalog is touched.
	if _, err := s.services.Prompts.Get(ctx, input.ID); err != nil {
		return nil, err
	}
	catalog, err := s.services.Tags.AddTag(ctx, input.Body.Tag)
	if err != nil {
		return nil, err
	}
	p, err := s.services.Prompts.AddTag(ctx, input.ID, input.Body.Tag)
	if err != nil {
		return nil, err
	}
	return &PromptTagOutput{Body: PromptTagResponse{Prompt: p, Tags: catalog}}, nil
}

func (s *Server) handleRemovePromptTag(ctx context.Context, input *PromptTagPathInput) (*PromptTagOutput, error) {
	p, err := s.services.Prompts.RemoveTag(ctx, input.ID, input.Tag)
	if err != nil {
		return nil, err
	}
	return &PromptTagOutput{Body: PromptTagResponse{Prompt: p}}, nil
}
