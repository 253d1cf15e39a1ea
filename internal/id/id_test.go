package id

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPromptID_IsUUID(t *testing.T) {
	a := NewPromptID()
	b := NewPromptID()

	_, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestGenerate_Prefix(t *testing.T) {
	got, err := Generate("gen")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "gen-"))
	assert.Len(t, got, len("gen-")+21)
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 500 {
		v := MustGenerate("x")
		assert.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
}

func TestImageFilename(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	pattern := regexp.MustCompile(`^1700000000123_2_[0-9a-z]{12}\.png$`)

	name, err := ImageFilename(now, 2)
	require.NoError(t, err)
	assert.Regexp(t, pattern, name)

	other, err := ImageFilename(now, 2)
	require.NoError(t, err)
	assert.NotEqual(t, name, other, "same millisecond and index must still differ")
}
