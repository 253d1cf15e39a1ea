package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func setupStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "images"), nil)
	require.NoError(t, err)
	return s
}

func TestNewStorage_EmptyRoot(t *testing.T) {
	_, err := NewStorage("", nil)
	assert.Error(t, err)
}

func TestStorage_Save(t *testing.T) {
	s := setupStorage(t)

	img, err := s.Save("p1", "1700_0_abc.png", pngBytes(t, 640, 960))
	require.NoError(t, err)

	assert.Equal(t, "1700_0_abc", img.ID)
	assert.Equal(t, "/images/p1/1700_0_abc.png", img.Path)
	assert.Equal(t, "/images/p1/thumb_1700_0_abc.png", img.ThumbnailPath)
	assert.NotEmpty(t, img.BlurHash)
	assert.False(t, img.CreatedAt.IsZero())

	thumb, err := os.ReadFile(filepath.Join(s.Dir("p1"), "thumb_1700_0_abc.png"))
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err, "thumbnail is JPEG encoded")
	assert.Equal(t, 256, cfg.Width)
	assert.Equal(t, 384, cfg.Height)
}

func TestStorage_SaveRejectsBadInput(t *testing.T) {
	s := setupStorage(t)

	_, err := s.Save("p1", "x.png", nil)
	assert.Error(t, err)
	_, err = s.Save("p1", "../x.png", pngBytes(t, 4, 4))
	assert.Error(t, err)
	_, err = s.Save("../p1", "x.png", pngBytes(t, 4, 4))
	assert.Error(t, err)
	_, err = s.Save("p1", "x.png", []byte("not an image"))
	assert.Error(t, err)
	assert.False(t, s.HasDir("p1"), "nothing written when decoding fails")
}

func TestStorage_ListNewestFirst(t *testing.T) {
	s := setupStorage(t)
	data := pngBytes(t, 32, 32)

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		_, err := s.Save("p1", name, data)
		require.NoError(t, err)
	}
	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(s.Dir("p1"), "a.png"), base, base.Add(2*time.Minute)))
	require.NoError(t, os.Chtimes(filepath.Join(s.Dir("p1"), "b.png"), base, base))
	require.NoError(t, os.Chtimes(filepath.Join(s.Dir("p1"), "c.png"), base, base.Add(time.Minute)))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir("p1"), "notes.txt"), []byte("x"), 0o644))

	list, err := s.List("p1")
	require.NoError(t, err)
	require.Len(t, list, 3, "thumbnails and non-images are skipped")
	assert.Equal(t, "a.png", list[0].Filename)
	assert.Equal(t, "c.png", list[1].Filename)
	assert.Equal(t, "b.png", list[2].Filename)
	assert.NotEmpty(t, list[0].BlurHash)
}

func TestStorage_ListMissingDir(t *testing.T) {
	s := setupStorage(t)
	list, err := s.List("none")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStorage_Find(t *testing.T) {
	s := setupStorage(t)
	_, err := s.Find("p1", "a")
	assert.ErrorIs(t, err, ErrNoDirectory)

	_, err = s.Save("p1", "17_0_x.png", pngBytes(t, 8, 8))
	require.NoError(t, err)

	img, err := s.Find("p1", "17_0_x")
	require.NoError(t, err)
	assert.Equal(t, "17_0_x.png", img.Filename)

	_, err = s.Find("p1", "thumb_17")
	assert.ErrorIs(t, err, ErrNotFound, "thumbnails never match")
	_, err = s.Find("p1", "99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_Delete(t *testing.T) {
	s := setupStorage(t)
	_, err := s.Save("p1", "a.png", pngBytes(t, 8, 8))
	require.NoError(t, err)
	_, err = s.Save("p1", "b.png", pngBytes(t, 8, 8))
	require.NoError(t, err)

	require.NoError(t, s.Delete("p1", "a.png"))
	_, err = os.Stat(filepath.Join(s.Dir("p1"), "thumb_a.png"))
	assert.True(t, os.IsNotExist(err))

	// Missing thumbnail is tolerated.
	require.NoError(t, os.Remove(filepath.Join(s.Dir("p1"), "thumb_b.png")))
	require.NoError(t, s.Delete("p1", "b.png"))

	assert.ErrorIs(t, s.Delete("p1", "b.png"), ErrNotFound)
}

func TestStorage_RemoveAll(t *testing.T) {
	s := setupStorage(t)
	_, err := s.Save("p1", "a.png", pngBytes(t, 8, 8))
	require.NoError(t, err)

	require.NoError(t, s.RemoveAll("p1"))
	assert.False(t, s.HasDir("p1"))
	require.NoError(t, s.RemoveAll("p1"), "removing twice is fine")
}
