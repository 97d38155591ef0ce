// Package store provides storage backends for PitchIQ.
//
// This file implements a PostgreSQL-backed store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BTreeMap/PitchIQ/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// SaveConversation upserts a conversation snapshot.
func (s *PostgresStore) SaveConversation(ctx context.Context, rec models.ConversationRecord) error {
	cols, err := encodeConversation(rec)
	if err != nil {
		slog.Error("PostgresStore SaveConversation encode failed", "error", err, "id", rec.ID)
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, business_context, user_name, persona_json, turns_json, state_json, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			business_context = EXCLUDED.business_context,
			user_name = EXCLUDED.user_name,
			persona_json = EXCLUDED.persona_json,
			turns_json = EXCLUDED.turns_json,
			state_json = EXCLUDED.state_json,
			updated_at = EXCLUDED.updated_at`,
		rec.ID, nilIfEmpty(rec.BusinessContext), nilIfEmpty(rec.UserName), nilIfEmpty(cols.persona),
		cols.turns, cols.state, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveConversation failed", "error", err, "id", rec.ID)
		return fmt.Errorf("failed to save conversation %s: %w", rec.ID, err)
	}
	slog.Debug("PostgresStore SaveConversation succeeded", "id", rec.ID, "turns", len(rec.Turns), "phase", rec.State.LikelyPhase)
	return nil
}

// GetConversation retrieves a conversation snapshot.
func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*models.ConversationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, business_context, user_name, persona_json, turns_json, state_json, created_at, updated_at
		FROM conversations WHERE id = $1`, id)
	rec, err := scanConversationRow(row)
	if err != nil && err != ErrNotFound {
		slog.Error("PostgresStore GetConversation failed", "error", err, "id", id)
	}
	return rec, err
}

// DeleteConversation removes a conversation snapshot.
func (s *PostgresStore) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		slog.Error("PostgresStore DeleteConversation failed", "error", err, "id", id)
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	slog.Debug("PostgresStore DeleteConversation succeeded", "id", id)
	return nil
}

// AddGeneration appends a persona generation record.
func (s *PostgresStore) AddGeneration(ctx context.Context, rec models.GenerationRecord) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("marshal generation fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO persona_generations (id, fields_json, created_at) VALUES ($1, $2, $3)`,
		rec.ID, string(fields), rec.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore AddGeneration failed", "error", err, "id", rec.ID)
		return fmt.Errorf("failed to insert generation %s: %w", rec.ID, err)
	}
	return nil
}

// ListGenerations returns the most recent generation records, oldest first.
func (s *PostgresStore) ListGenerations(ctx context.Context, limit int) ([]models.GenerationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fields_json, created_at FROM (
			SELECT seq, id, fields_json, created_at FROM persona_generations ORDER BY seq DESC LIMIT $1
		) recent ORDER BY seq ASC`, normalizeLimit(limit))
	if err != nil {
		slog.Error("PostgresStore ListGenerations query failed", "error", err)
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()
	out, err := scanGenerations(rows)
	if err != nil {
		slog.Error("PostgresStore ListGenerations scan failed", "error", err)
		return nil, err
	}
	slog.Debug("PostgresStore ListGenerations succeeded", "count", len(out))
	return out, nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
