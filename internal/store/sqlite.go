// Package store provides storage backends for PitchIQ.
//
// This file implements an SQLite-backed store for conversations and the
// persona generation log.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/BTreeMap/PitchIQ/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("SQLiteStore.NewSQLiteStore: creating SQLite store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully", "path", dsn)

	return &SQLiteStore{db: db}, nil
}

// SaveConversation stores or replaces a conversation snapshot.
func (s *SQLiteStore) SaveConversation(ctx context.Context, rec models.ConversationRecord) error {
	cols, err := encodeConversation(rec)
	if err != nil {
		slog.Error("SQLiteStore SaveConversation encode failed", "error", err, "id", rec.ID)
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO conversations (id, business_context, user_name, persona_json, turns_json, state_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, nilIfEmpty(rec.BusinessContext), nilIfEmpty(rec.UserName), nilIfEmpty(cols.persona),
		cols.turns, cols.state, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveConversation failed", "error", err, "id", rec.ID)
		return fmt.Errorf("failed to save conversation %s: %w", rec.ID, err)
	}
	slog.Debug("SQLiteStore SaveConversation succeeded", "id", rec.ID, "turns", len(rec.Turns), "phase", rec.State.LikelyPhase)
	return nil
}

// GetConversation retrieves a conversation snapshot.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*models.ConversationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, business_context, user_name, persona_json, turns_json, state_json, created_at, updated_at
		FROM conversations WHERE id = ?`, id)
	rec, err := scanConversationRow(row)
	if err != nil && err != ErrNotFound {
		slog.Error("SQLiteStore GetConversation failed", "error", err, "id", id)
	}
	return rec, err
}

// DeleteConversation removes a conversation snapshot.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		slog.Error("SQLiteStore DeleteConversation failed", "error", err, "id", id)
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	slog.Debug("SQLiteStore DeleteConversation succeeded", "id", id)
	return nil
}

// AddGeneration appends a persona generation record.
func (s *SQLiteStore) AddGeneration(ctx context.Context, rec models.GenerationRecord) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("marshal generation fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO persona_generations (id, fields_json, created_at) VALUES (?, ?, ?)`,
		rec.ID, string(fields), rec.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore AddGeneration failed", "error", err, "id", rec.ID)
		return fmt.Errorf("failed to insert generation %s: %w", rec.ID, err)
	}
	return nil
}

// ListGenerations returns the most recent generation records, oldest first.
func (s *SQLiteStore) ListGenerations(ctx context.Context, limit int) ([]models.GenerationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fields_json, created_at FROM (
			SELECT seq, id, fields_json, created_at FROM persona_generations ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, normalizeLimit(limit))
	if err != nil {
		slog.Error("SQLiteStore ListGenerations query failed", "error", err)
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()
	out, err := scanGenerations(rows)
	if err != nil {
		slog.Error("SQLiteStore ListGenerations scan failed", "error", err)
		return nil, err
	}
	slog.Debug("SQLiteStore ListGenerations succeeded", "count", len(out))
	return out, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
