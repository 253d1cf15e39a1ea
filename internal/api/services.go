package api

import "github.com/imggen/imggen-server/internal/service"

// Services groups the business logic services used by the API server.
type Services struct {
	Prompts    *service.PromptService
	Tags       *service.TagService
	Images     *service.ImageService
	Generation *service.GenerationService
	Search     *service.SearchService
}
