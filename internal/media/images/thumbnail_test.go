package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeThumbnail_NeverUpscales(t *testing.T) {
	data, small, err := MakeThumbnail(pngBytes(t, 100, 50))
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
	assert.Equal(t, image.Rect(0, 0, 100, 50), small.Bounds())
}

func TestMakeThumbnail_KeepsAspectRatio(t *testing.T) {
	_, small, err := MakeThumbnail(pngBytes(t, 1024, 512))
	require.NoError(t, err)
	assert.Equal(t, 256, small.Bounds().Dx())
	assert.Equal(t, 128, small.Bounds().Dy())
}

func TestBlurHash_LargeImage(t *testing.T) {
	img, _, err := image.Decode(bytes.NewReader(pngBytes(t, 300, 200)))
	require.NoError(t, err)

	hash, err := BlurHash(img)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

func TestBlurHashFile_Missing(t *testing.T) {
	_, err := BlurHashFile("/does/not/exist.png")
	assert.Error(t, err)
}
