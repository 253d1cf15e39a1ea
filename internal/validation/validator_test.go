package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/imggen/imggen-server/internal/errors"
)

type tagInput struct {
	Tag string `json:"tag" validate:"notblank,tag"`
}

type generateInput struct {
	Tags  []string `json:"tags" validate:"max=3,dive,tag"`
	Count int      `json:"count" validate:"gte=0,lte=8"`
}

func TestValidate_Tag(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(tagInput{Tag: "cute"}))

	err := v.Validate(tagInput{Tag: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, map[string]string{"tag": "is required"}, derr.Details)

	require.NoError(t, v.Validate(tagInput{Tag: "1/2 body shot"}))
	require.NoError(t, v.Validate(tagInput{Tag: strings.Repeat("x", 200)}))
}

func TestValidate_Nested(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(generateInput{Tags: []string{"a"}, Count: 2}))

	err := v.Validate(generateInput{Tags: []string{"a", "b", "c", "d"}, Count: 9})
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	details := derr.Details.(map[string]string)
	assert.Equal(t, "must not have more than 3 items", details["tags"])
	assert.Equal(t, "must be less than or equal to 8", details["count"])
}

func TestVar(t *testing.T) {
	v := New()
	assert.NoError(t, v.Var("q", "cats", "max=10"))
	assert.ErrorIs(t, v.Var("q", "far too long query", "max=10"), domainerrors.ErrValidation)
}

func TestValidTag(t *testing.T) {
	assert.True(t, ValidTag("blue-eyes"))
	assert.False(t, ValidTag(""))
	assert.False(t, ValidTag(" \t"))
	assert.True(t, ValidTag(`a\b`))
	assert.True(t, ValidTag("1/2 body shot"))
	assert.True(t, ValidTag(strings.Repeat("x", 65)))
}
