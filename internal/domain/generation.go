package domain

import "time"

type GenerationStatus string

const (
	GenerationSucceeded GenerationStatus = "succeeded"
	GenerationFailed    GenerationStatus = "failed"
)

// GenerationRecord is one row of generation history: a single batch call
// to the image backend and what came of it.
type GenerationRecord struct {
	ID              string           `json:"id"`
	PromptID        string           `json:"promptId"`
	EffectivePrompt string           `json:"effectivePrompt"`
	NegativePrompt  string           `json:"negativePrompt"`
	Seed            int64            `json:"seed"`
	Requested       int              `json:"requested"`
	Saved           int              `json:"saved"`
	Temporary       bool             `json:"temporary"`
	Status          GenerationStatus `json:"status"`
	Error           string           `json:"error,omitempty"`
	DurationMS      int64            `json:"durationMs"`
	CreatedAt       time.Time        `json:"createdAt"`
}
