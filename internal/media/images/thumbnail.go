package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

const (
	// ThumbnailWidth bounds thumbnail width; height follows the aspect ratio.
	ThumbnailWidth   = 256
	thumbnailQuality = 80
)

// MakeThumbnail decodes data and returns JPEG thumbnail bytes plus the
// decoded thumbnail for further processing. Images narrower than
// ThumbnailWidth are re-encoded at their own size, never enlarged.
func MakeThumbnail(data []byte) ([]byte, image.Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("decode image: %w", err)
	}

	dst := scaleToWidth(src, ThumbnailWidth, draw.CatmullRom)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), dst, nil
}

// scaleToWidth fits src inside maxWidth keeping its aspect ratio.
func scaleToWidth(src image.Image, maxWidth int, scaler draw.Scaler) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxWidth {
		return src
	}
	nh := max(h*maxWidth/w, 1)
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, nh))
	scaler.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
