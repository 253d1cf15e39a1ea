package search

import (
	"time"

	"github.com/imggen/imggen-server/internal/domain"
)

// PromptDocument is the indexed projection of a prompt.
type PromptDocument struct {
	ID             string
	Name           string
	Prompt         string
	NegativePrompt string
	Tags           []string
	HasPreview     bool
	CreatedAt      time.Time
}

// NewPromptDocument projects a prompt for indexing.
func NewPromptDocument(p *domain.Prompt) *PromptDocument {
	return &PromptDocument{
		ID:             p.ID,
		Name:           p.Name,
		Prompt:         p.Prompt,
		NegativePrompt: p.NegativePrompt,
		Tags:           p.Tags,
		HasPreview:     p.PreviewImage != nil,
		CreatedAt:      p.CreatedAt,
	}
}

// ToMap converts the document to the field names used by the mapping.
func (d *PromptDocument) ToMap() map[string]any {
	return map[string]any{
		"id":              d.ID,
		"name":            d.Name,
		"prompt":          d.Prompt,
		"negative_prompt": d.NegativePrompt,
		"tags":            d.Tags,
		"has_preview":     d.HasPreview,
		"created_at":      d.CreatedAt,
	}
}
