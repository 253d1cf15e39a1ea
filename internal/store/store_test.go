package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imggen/imggen-server/internal/store"
	"github.com/imggen/imggen-server/internal/store/storetest"
)

func TestBadger(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := store.OpenBadger(filepath.Join(t.TempDir(), "db"), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
