package domain

import "time"

// ThumbnailPrefix marks derived thumbnail files inside an image directory.
const ThumbnailPrefix = "thumb_"

// Image describes one generated image file. It is derived from the
// filesystem on every read and never persisted on its own.
type Image struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	Path          string    `json:"path"`
	ThumbnailPath string    `json:"thumbnailPath"`
	CreatedAt     time.Time `json:"createdAt"`
	BlurHash      string    `json:"blurHash,omitempty"`
}
