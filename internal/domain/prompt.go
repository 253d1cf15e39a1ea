// Package domain holds the records imggen persists and returns.
package domain

import (
	"path"
	"slices"
	"time"

	"github.com/imggen/imggen-server/internal/normalize"
)

// DefaultSeed asks the generator for a random seed.
const DefaultSeed int64 = -1

// Prompt is a saved generation recipe. JSON field names match the record
// files written by earlier installs.
type Prompt struct {
	ID             string `json:"id"`
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt"`
	Seed           int64  `json:"seed"`
	Name           string `json:"name"`
	// PreviewImage and PreviewThumbnail are public image paths, or null
	// when no preview is chosen. They always change together.
	PreviewImage     *string   `json:"previewImage"`
	PreviewThumbnail *string   `json:"previewThumbnail"`
	Tags             []string  `json:"tags"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// HasTag reports whether the prompt already carries tag.
func (p *Prompt) HasTag(tag string) bool {
	return slices.Contains(p.Tags, tag)
}

// Normalize repairs fields that older or hand-edited records may lack,
// and drops blank or repeated tags.
func (p *Prompt) Normalize() {
	p.Tags = normalize.Tags(p.Tags)
}

// SetPreview points both preview fields at img, or clears them when img is nil.
func (p *Prompt) SetPreview(img *Image) {
	if img == nil {
		p.PreviewImage, p.PreviewThumbnail = nil, nil
		return
	}
	full, thumb := img.Path, img.ThumbnailPath
	p.PreviewImage, p.PreviewThumbnail = &full, &thumb
}

// PreviewIs reports whether the current preview points at the given file.
func (p *Prompt) PreviewIs(filename string) bool {
	return p.PreviewImage != nil && filename != "" && path.Base(*p.PreviewImage) == filename
}

// CreatePrompt carries the fields accepted when creating a prompt.
// Nil pointers mean "not supplied" and select the default.
type CreatePrompt struct {
	Prompt         string
	NegativePrompt *string
	Seed           *int64
	Name           *string
}

// PromptPatch is a partial update. Prompt and Name apply only when non-empty;
// NegativePrompt and Seed apply whenever supplied, including "" and 0.
type PromptPatch struct {
	Prompt         *string
	NegativePrompt *string
	Seed           *int64
	Name           *string
}

// Apply overlays the patch onto p.
func (patch PromptPatch) Apply(p *Prompt) {
	if patch.Prompt != nil && *patch.Prompt != "" {
		p.Prompt = *patch.Prompt
	}
	if patch.NegativePrompt != nil {
		p.NegativePrompt = *patch.NegativePrompt
	}
	if patch.Seed != nil {
		p.Seed = *patch.Seed
	}
	if patch.Name != nil && *patch.Name != "" {
		p.Name = *patch.Name
	}
}
