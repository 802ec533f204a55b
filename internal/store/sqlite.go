package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBackend keeps the snapshot document in a single-row SQLite table.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens the database at dbPath and applies pending migrations.
func NewSQLiteBackend(ctx context.Context, dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Load returns the stored document, or nil if none was saved yet.
func (b *SQLiteBackend) Load(ctx context.Context) ([]byte, error) {
	var body string
	err := b.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return []byte(body), nil
}

// Save replaces the stored document.
func (b *SQLiteBackend) Save(ctx context.Context, data []byte) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, body, saved_at, size_bytes)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			body = excluded.body,
			saved_at = excluded.saved_at,
			size_bytes = excluded.size_bytes
	`, string(data), time.Now().UTC(), len(data))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// SavedAt reports when the snapshot was last written. The zero time means
// nothing has been saved.
func (b *SQLiteBackend) SavedAt(ctx context.Context) (time.Time, error) {
	var savedAt time.Time
	err := b.db.QueryRowContext(ctx, `SELECT saved_at FROM snapshots WHERE id = 1`).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read snapshot time: %w", err)
	}
	return savedAt, nil
}

// Close closes the database connection.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

var _ Backend = (*SQLiteBackend)(nil)
