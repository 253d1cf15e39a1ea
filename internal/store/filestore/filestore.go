// Package filestore keeps each prompt in its own JSON file and the tag
// catalog in a single JSON document:
//
//	{root}/prompts/{id}.json
//	{root}/global-tags.json
//
// Writes replace the whole file. Nothing is locked; two processes writing
// the same record race and the last write wins.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/imggen/imggen-server/internal/domain"
	"github.com/imggen/imggen-server/internal/store"
)

const (
	promptsDir  = "prompts"
	catalogFile = "global-tags.json"
	recordExt   = ".json"
)

// Store is a file-per-record implementation of store.Store.
type Store struct {
	root   string
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

type catalogDocument struct {
	Tags []string `json:"tags"`
}

// New prepares root for use, creating the prompts directory if needed.
func New(root string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, promptsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create prompts dir: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{root: root, logger: logger}, nil
}

// PromptsDir is the directory holding the record files.
func (s *Store) PromptsDir() string {
	return filepath.Join(s.root, promptsDir)
}

// PromptIDFromPath maps a record file path back to its prompt ID.
func PromptIDFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, recordExt) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return strings.TrimSuffix(name, recordExt), true
}

func (s *Store) promptPath(id string) string {
	return filepath.Join(s.root, promptsDir, id+recordExt)
}

func (s *Store) Close() error { return nil }

func (s *Store) SavePrompt(_ context.Context, p *domain.Prompt) error {
	if !store.ValidID(p.ID) {
		return store.ErrInvalidID
	}
	return writeJSON(s.promptPath(p.ID), p)
}

func (s *Store) GetPrompt(_ context.Context, id string) (*domain.Prompt, error) {
	if !store.ValidID(id) {
		return nil, store.ErrNotFound
	}
	return readPrompt(s.promptPath(id))
}

func (s *Store) ListPrompts(ctx context.Context) ([]*domain.Prompt, error) {
	entries, err := os.ReadDir(s.PromptsDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*domain.Prompt{}, nil
		}
		return nil, fmt.Errorf("read prompts dir: %w", err)
	}

	prompts := make([]*domain.Prompt, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		if _, ok := PromptIDFromPath(e.Name()); !ok {
			continue
		}
		p, err := readPrompt(filepath.Join(s.PromptsDir(), e.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable prompt file", "file", e.Name(), "error", err)
			continue
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}

func (s *Store) DeletePrompt(_ context.Context, id string) error {
	if !store.ValidID(id) {
		return store.ErrNotFound
	}
	err := os.Remove(s.promptPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) LoadTagCatalog(_ context.Context) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, catalogFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("read tag catalog: %w", err)
	}
	var doc catalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode tag catalog: %w", err)
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	return doc.Tags, nil
}

func (s *Store) SaveTagCatalog(_ context.Context, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	return writeJSON(filepath.Join(s.root, catalogFile), catalogDocument{Tags: tags})
}

func readPrompt(path string) (*domain.Prompt, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is built from a validated id
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	var p domain.Prompt
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	p.Normalize()
	return &p, nil
}

// writeJSON rewrites path with two-space indented JSON.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //#nosec G306 -- records are not secret
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
