// Package history keeps a local SQLite log of completed translations.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS translations (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at      INTEGER NOT NULL,
	input_type      TEXT    NOT NULL,
	source_text     TEXT    NOT NULL,
	target_language TEXT    NOT NULL,
	translated_text TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS translations_created_at ON translations (created_at);
`

// Entry is one completed translation
type Entry struct {
	ID             int64
	CreatedAt      time.Time
	InputType      string
	SourceText     string
	TargetLanguage string
	TranslatedText string
}

// Store is a translation history backed by SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the history database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise history: %w", err)
	}

	log.Debug().Str("path", path).Msg("History opened")
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends a translation. CreatedAt defaults to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translations (created_at, input_type, source_text, target_language, translated_text)
		 VALUES (?, ?, ?, ?, ?)`,
		e.CreatedAt.UnixNano(), e.InputType, e.SourceText, e.TargetLanguage, e.TranslatedText)
	if err != nil {
		return fmt.Errorf("failed to record translation: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, input_type, source_text, target_language, translated_text
		 FROM translations ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &created, &e.InputType, &e.SourceText, &e.TargetLanguage, &e.TranslatedText); err != nil {
			return nil, fmt.Errorf("failed to read history: %w", err)
		}
		e.CreatedAt = time.Unix(0, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
