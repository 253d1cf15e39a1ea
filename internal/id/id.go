// Package id generates identifiers for prompts, images, and history rows.
package id

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// filenameAlphabet keeps generated file names free of '-' and '_', which
// are used as separators in image file names.
const filenameAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewPromptID returns a random UUID v4. Prompt IDs stay UUIDs so that
// record files written by earlier installs keep resolving.
func NewPromptID() string {
	return uuid.NewString()
}

// Generate creates a prefixed NanoID, e.g. "gen-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// ImageFilename builds "{unixMillis}_{index}_{random}.png". The timestamp
// and batch index order files within a batch; the random suffix separates
// concurrent batches that land on the same millisecond.
func ImageFilename(now time.Time, index int) (string, error) {
	suffix, err := gonanoid.Generate(filenameAlphabet, 12)
	if err != nil {
		return "", fmt.Errorf("generate image filename: %w", err)
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "_" + strconv.Itoa(index) + "_" + suffix + ".png", nil
}
