// Package images stores generated images and their thumbnails under one
// directory per prompt:
//
//	{root}/{promptID}/{file}.png
//	{root}/{promptID}/thumb_{file}.png
//
// Image descriptors are rebuilt from the directory listing on every read.
package images

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/imggen/imggen-server/internal/domain"
	"github.com/imggen/imggen-server/internal/store"
)

// PublicPrefix is the URL prefix under which the image root is served.
const PublicPrefix = "/images"

var (
	// ErrNoDirectory means the prompt has no image directory yet.
	ErrNoDirectory = errors.New("image directory not found")
	// ErrNotFound means no image in the directory matches.
	ErrNotFound = errors.New("image not found")
)

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}

// Storage manages image files for all prompts. Safe for concurrent use
// within one process.
type Storage struct {
	root   string
	mu     sync.RWMutex
	logger *slog.Logger
	hashes sync.Map // thumbnail path + mtime -> blurhash
}

// NewStorage creates the image root if needed.
func NewStorage(root string, logger *slog.Logger) (*Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("image root cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image root: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Storage{root: root, logger: logger}, nil
}

// Root is the directory served under PublicPrefix.
func (s *Storage) Root() string { return s.root }

// Dir returns the image directory for a prompt.
func (s *Storage) Dir(promptID string) string {
	return filepath.Join(s.root, promptID)
}

// HasDir reports whether the prompt's image directory exists.
func (s *Storage) HasDir(promptID string) bool {
	if !store.ValidID(promptID) {
		return false
	}
	info, err := os.Stat(s.Dir(promptID))
	return err == nil && info.IsDir()
}

// Save writes an image and its thumbnail and returns the descriptor.
// The original bytes are kept as-is; the thumbnail is always JPEG-encoded
// but shares the original's file name behind the thumb_ prefix.
func (s *Storage) Save(promptID, filename string, data []byte) (*domain.Image, error) {
	if !store.ValidID(promptID) {
		return nil, fmt.Errorf("invalid prompt id %q", promptID)
	}
	if !validFilename(filename) {
		return nil, fmt.Errorf("invalid image filename %q", filename)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image data cannot be empty")
	}

	thumb, small, err := MakeThumbnail(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.Dir(promptID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}
	full := filepath.Join(dir, filename)
	if err := os.WriteFile(full, data, 0o644); err != nil { //#nosec G306 -- served publicly anyway
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	thumbPath := filepath.Join(dir, domain.ThumbnailPrefix+filename)
	if err := os.WriteFile(thumbPath, thumb, 0o644); err != nil { //#nosec G306
		return nil, fmt.Errorf("failed to write thumbnail: %w", err)
	}

	img := s.describe(promptID, filename, time.Now())
	if info, err := os.Stat(full); err == nil {
		img.CreatedAt = info.ModTime()
	}
	if hash, err := BlurHash(small); err == nil {
		img.BlurHash = hash
		if info, err := os.Stat(thumbPath); err == nil {
			s.hashes.Store(hashKey(thumbPath, info.ModTime()), hash)
		}
	} else {
		s.logger.Debug("blurhash failed", "file", filename, "error", err)
	}
	return img, nil
}

// List returns the prompt's images, newest first. A missing directory
// yields an empty list.
func (s *Storage) List(promptID string) ([]*domain.Image, error) {
	if !store.ValidID(promptID) {
		return []*domain.Image{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.Dir(promptID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*domain.Image{}, nil
		}
		return nil, fmt.Errorf("failed to read image dir: %w", err)
	}

	images := make([]*domain.Image, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isOriginal(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		img := s.describe(promptID, e.Name(), info.ModTime())
		img.BlurHash = s.cachedBlurHash(filepath.Join(s.Dir(promptID), domain.ThumbnailPrefix+e.Name()))
		images = append(images, img)
	}

	slices.SortFunc(images, func(a, b *domain.Image) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.Filename, a.Filename)
	})
	return images, nil
}

// Find returns the first image whose file name starts with imageID.
func (s *Storage) Find(promptID, imageID string) (*domain.Image, error) {
	if !s.HasDir(promptID) {
		return nil, ErrNoDirectory
	}
	if imageID == "" {
		return nil, ErrNotFound
	}
	images, err := s.List(promptID)
	if err != nil {
		return nil, err
	}
	// List is newest first; match against a stable name order instead.
	slices.SortFunc(images, func(a, b *domain.Image) int { return strings.Compare(a.Filename, b.Filename) })
	for _, img := range images {
		if strings.HasPrefix(img.Filename, imageID) {
			return img, nil
		}
	}
	return nil, ErrNotFound
}

// Delete removes an image and its thumbnail. A missing thumbnail is ignored.
func (s *Storage) Delete(promptID, filename string) error {
	if !store.ValidID(promptID) || !validFilename(filename) {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.Dir(promptID)
	if err := os.Remove(filepath.Join(dir, filename)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete image: %w", err)
	}
	thumb := filepath.Join(dir, domain.ThumbnailPrefix+filename)
	if err := os.Remove(thumb); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete thumbnail: %w", err)
	}
	return nil
}

// RemoveAll deletes the prompt's image directory and everything in it.
func (s *Storage) RemoveAll(promptID string) error {
	if !store.ValidID(promptID) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.RemoveAll(s.Dir(promptID))
}

func (s *Storage) describe(promptID, filename string, created time.Time) *domain.Image {
	return &domain.Image{
		ID:            strings.TrimSuffix(filename, filepath.Ext(filename)),
		Filename:      filename,
		Path:          path.Join(PublicPrefix, promptID, filename),
		ThumbnailPath: path.Join(PublicPrefix, promptID, domain.ThumbnailPrefix+filename),
		CreatedAt:     created,
	}
}

func (s *Storage) cachedBlurHash(thumbPath string) string {
	info, err := os.Stat(thumbPath)
	if err != nil {
		return ""
	}
	key := hashKey(thumbPath, info.ModTime())
	if v, ok := s.hashes.Load(key); ok {
		return v.(string)
	}
	hash, err := BlurHashFile(thumbPath)
	if err != nil {
		s.logger.Debug("blurhash failed", "path", thumbPath, "error", err)
		return ""
	}
	s.hashes.Store(key, hash)
	return hash
}

func hashKey(p string, mod time.Time) string {
	return p + "@" + mod.UTC().Format(time.RFC3339Nano)
}

func isOriginal(name string) bool {
	return !strings.HasPrefix(name, domain.ThumbnailPrefix) &&
		imageExts[strings.ToLower(filepath.Ext(name))]
}

func validFilename(name string) bool {
	return name != "" && name == filepath.Base(name) && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`)
}
