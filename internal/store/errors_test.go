package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imggen/imggen-server/internal/store"
)

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"0b8f5c2e-6c1a-4f7e-9d0a-3c2b1a4e5f60", true},
		{"legacy_id-1", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../etc", false},
		{`a\b`, false},
		{"prompt:1", false},
		{"a\x00b", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, store.ValidID(tt.id), "id %q", tt.id)
	}
}
