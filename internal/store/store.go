package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/imggen/imggen-server/internal/domain"
)

// Badger stores prompt records and the tag catalog in a Badger database,
// JSON-encoded under "prompt:{id}" and "catalog:tags".
type Badger struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ Store = (*Badger)(nil)

type catalogRecord struct {
	Tags []string `json:"tags"`
}

// OpenBadger opens (or creates) a Badger database at path.
func OpenBadger(path string, logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	if logger != nil {
		logger.Info("Badger database opened", "path", path)
	}
	return &Badger{db: db, logger: logger}, nil
}

// Close gracefully closes the database.
func (s *Badger) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing badger database")
	}
	return s.db.Close()
}

func (s *Badger) SavePrompt(_ context.Context, p *domain.Prompt) error {
	if !ValidID(p.ID) {
		return ErrInvalidID
	}
	return s.set(promptKey(p.ID), p)
}

func (s *Badger) GetPrompt(_ context.Context, id string) (*domain.Prompt, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	var p domain.Prompt
	if err := s.get(promptKey(id), &p); err != nil {
		return nil, err
	}
	p.Normalize()
	return &p, nil
}

func (s *Badger) ListPrompts(ctx context.Context) ([]*domain.Prompt, error) {
	prompts := []*domain.Prompt{}
	prefix := []byte(promptPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var p domain.Prompt
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				if s.logger != nil {
					s.logger.Warn("skipping unreadable prompt record", "key", string(item.Key()), "error", err)
				}
				continue
			}
			p.Normalize()
			prompts = append(prompts, &p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	return prompts, nil
}

func (s *Badger) DeletePrompt(_ context.Context, id string) error {
	if !ValidID(id) {
		return ErrNotFound
	}
	key := promptKey(id)
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

func (s *Badger) LoadTagCatalog(_ context.Context) ([]string, error) {
	var rec catalogRecord
	if err := s.get([]byte(catalogKey), &rec); err != nil {
		return nil, err
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	return rec.Tags, nil
}

func (s *Badger) SaveTagCatalog(_ context.Context, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	return s.set([]byte(catalogKey), catalogRecord{Tags: tags})
}

// get decodes the value at key into dest, mapping a missing key to ErrNotFound.
func (s *Badger) get(key []byte, dest any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Badger) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}
