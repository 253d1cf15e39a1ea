// Package sqlite keeps the generation history in a SQLite database: one row
// per batch sent to the image backend, successful or not.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/imggen/imggen-server/internal/domain"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// DefaultListLimit caps history queries that do not ask for a limit.
const DefaultListLimit = 50

const generationColumns = `id, prompt_id, effective_prompt, negative_prompt, seed,
	requested, saved, temporary, status, error, duration_ms, created_at`

// HistoryStore records generation batches.
type HistoryStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the history database at path.
func Open(path string, logger *slog.Logger) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HistoryStore{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Record inserts one generation row.
func (s *HistoryStore) Record(ctx context.Context, rec *domain.GenerationRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generations (`+generationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.PromptID,
		rec.EffectivePrompt,
		rec.NegativePrompt,
		rec.Seed,
		rec.Requested,
		rec.Saved,
		boolToInt(rec.Temporary),
		string(rec.Status),
		nullString(rec.Error),
		rec.DurationMS,
		formatTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}
	return nil
}

// ListForPrompt returns the newest rows for a prompt, at most limit of them.
func (s *HistoryStore) ListForPrompt(ctx context.Context, promptID string, limit int) ([]*domain.GenerationRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+generationColumns+` FROM generations
		 WHERE prompt_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		promptID, limit)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	out := []*domain.GenerationRecord{}
	for rows.Next() {
		rec, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteForPrompt drops every row of a deleted prompt.
func (s *HistoryStore) DeleteForPrompt(ctx context.Context, promptID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM generations WHERE prompt_id = ?`, promptID)
	if err != nil {
		return 0, fmt.Errorf("delete generations: %w", err)
	}
	return res.RowsAffected()
}

func scanGeneration(scanner interface{ Scan(dest ...any) error }) (*domain.GenerationRecord, error) {
	var (
		rec       domain.GenerationRecord
		temporary int
		status    string
		errText   sql.NullString
		createdAt string
	)
	err := scanner.Scan(
		&rec.ID,
		&rec.PromptID,
		&rec.EffectivePrompt,
		&rec.NegativePrompt,
		&rec.Seed,
		&rec.Requested,
		&rec.Saved,
		&temporary,
		&status,
		&errText,
		&rec.DurationMS,
		&createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan generation: %w", err)
	}
	rec.Temporary = temporary != 0
	rec.Status = domain.GenerationStatus(status)
	rec.Error = errText.String
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
