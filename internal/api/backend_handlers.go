package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/imggen/imggen-server/internal/sdapi"
)

func (s *Server) registerBackendRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getBackendStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Generator status",
		Description: "Reports whether the Stable Diffusion API answers",
		Tags:        []string{"Generator"},
	}, s.handleBackendStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "listModels",
		Method:      http.MethodGet,
		Path:        "/api/v1/models",
		Summary:     "List models",
		Description: "Lists the checkpoints installed on the Stable Diffusion server",
		Tags:        []string{"Generator"},
	}, s.handleListModels)

	huma.Register(s.api, huma.Operation{
		OperationID: "checkModel",
		Method:      http.MethodGet,
		Path:        "/api/v1/check-model",
		Summary:     "Current model",
		Description: "Returns the loaded checkpoint and all server settings",
		Tags:        []string{"Generator"},
	}, s.handleCheckModel)
}

// BackendStatusResponse reports generator reachability.
type BackendStatusResponse struct {
	IsAvailable bool   `json:"isAvailable"`
	Message     string `json:"message"`
}

// BackendStatusOutput wraps the status response for Huma.
type BackendStatusOutput struct {
	Body BackendStatusResponse
}

// ModelsResponse contains the installed checkpoints.
type ModelsResponse struct {
	Models []sdapi.Model `json:"models"`
}

// ModelsOutput wraps the model list for Huma.
type ModelsOutput struct {
	Body ModelsResponse
}

// CheckModelResponse contains the loaded checkpoint and server settings.
type CheckModelResponse struct {
	CurrentModel string         `json:"currentModel"`
	AllSettings  map[string]any `json:"allSettings"`
}

// CheckModelOutput wraps the current model for Huma.
type CheckModelOutput struct {
	Body CheckModelResponse
}

func (s *Server) handleBackendStatus(ctx context.Context, _ *struct{}) (*BackendStatusOutput, error) {
	out := &BackendStatusOutput{}
	out.Body.IsAvailable = s.services.Generation.Status(ctx)
	if out.Body.IsAvailable {
		out.Body.Message = "Stable Diffusion API is available"
	} else {
		out.Body.Message = "Stable Diffusion API is not available"
	}
	return out, nil
}

func (s *Server) handleListModels(ctx context.Context, _ *struct{}) (*ModelsOutput, error) {
	models, err := s.services.Generation.Models(ctx)
	if err != nil {
		return nil, err
	}
	return &ModelsOutput{Body: ModelsResponse{Models: models}}, nil
}

func (s *Server) handleCheckModel(ctx context.Context, _ *struct{}) (*CheckModelOutput, error) {
	current, settings, err := s.services.Generation.CurrentModel(ctx)
	if err != nil {
		return nil, err
	}
	return &CheckModelOutput{Body: CheckModelResponse{CurrentModel: current, AllSettings: settings}}, nil
}
