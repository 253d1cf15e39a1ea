package images

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// blurHashSize bounds the image fed to the encoder; a placeholder hash
// gains nothing from more pixels.
const blurHashSize = 64

// BlurHash encodes img with 4x3 components.
func BlurHash(img image.Image) (string, error) {
	b := img.Bounds()
	if b.Dx() > blurHashSize || b.Dy() > blurHashSize {
		img = fitInside(img, blurHashSize)
	}
	hash, err := blurhash.Encode(4, 3, img)
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// BlurHashFile decodes the image at path and returns its BlurHash.
func BlurHashFile(path string) (string, error) {
	f, err := os.Open(path) //#nosec G304 -- path comes from a directory listing
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	return BlurHash(img)
}

func fitInside(src image.Image, size int) image.Image {
	b := src.Bounds()
	w, h := size, size
	if b.Dx() > b.Dy() {
		h = max(b.Dy()*size/b.Dx(), 1)
	} else {
		w = max(b.Dx()*size/b.Dy(), 1)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
