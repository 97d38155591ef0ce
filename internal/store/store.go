// Package store provides storage backends for PitchIQ.
//
// It persists conversation snapshots and the persona generation log. The
// engine itself never depends on a backend; the conversation registry and
// the persona generator write through the Store interface.
package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/PitchIQ/internal/models"
)

// DefaultGenerationLimit caps how many generation records a list returns
// when the caller does not ask for a specific number.
const DefaultGenerationLimit = 1000

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence surface used by the engine.
type Store interface {
	// SaveConversation inserts or replaces a conversation snapshot.
	SaveConversation(ctx context.Context, rec models.ConversationRecord) error
	// GetConversation returns ErrNotFound when id is unknown.
	GetConversation(ctx context.Context, id string) (*models.ConversationRecord, error)
	// DeleteConversation returns ErrNotFound when id is unknown.
	DeleteConversation(ctx context.Context, id string) error
	// AddGeneration appends a persona generation record.
	AddGeneration(ctx context.Context, rec models.GenerationRecord) error
	// ListGenerations returns up to limit of the most recent records, oldest first.
	ListGenerations(ctx context.Context, limit int) ([]models.GenerationRecord, error)
	Close() error
}

// Opts holds configuration for persistent store backends.
type Opts struct {
	DSN             string
	RedisURL        string
	KeyPrefix       string
	ConversationTTL time.Duration
	GenerationCap   int
}

// Option configures a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithRedisURL sets the redis:// URL for the Redis backend.
func WithRedisURL(url string) Option {
	return func(o *Opts) { o.RedisURL = url }
}

// WithKeyPrefix namespaces Redis keys.
func WithKeyPrefix(prefix string) Option {
	return func(o *Opts) { o.KeyPrefix = prefix }
}

// WithConversationTTL expires Redis conversation snapshots after d; zero keeps them forever.
func WithConversationTTL(d time.Duration) Option {
	return func(o *Opts) { o.ConversationTTL = d }
}

// WithGenerationCap bounds the Redis generation list.
func WithGenerationCap(n int) Option {
	return func(o *Opts) { o.GenerationCap = n }
}

// DetectDSNType returns "postgres", "redis" or "sqlite" for a DSN.
func DetectDSNType(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "host=") && strings.Contains(dsn, "dbname="):
		return "postgres"
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return "redis"
	default:
		return "sqlite"
	}
}

// InMemoryStore is a process-local Store used when no DSN is configured.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]models.ConversationRecord
	generations   []models.GenerationRecord
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[string]models.ConversationRecord)}
}

func (s *InMemoryStore) SaveConversation(_ context.Context, rec models.ConversationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *InMemoryStore) GetConversation(_ context.Context, id string) (*models.ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneRecord(rec)
	return &out, nil
}

func (s *InMemoryStore) DeleteConversation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(s.conversations, id)
	return nil
}

func (s *InMemoryStore) AddGeneration(_ context.Context, rec models.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations = append(s.generations, rec)
	if over := len(s.generations) - DefaultGenerationLimit; over > 0 {
		s.generations = append([]models.GenerationRecord(nil), s.generations[over:]...)
	}
	return nil
}

func (s *InMemoryStore) ListGenerations(_ context.Context, limit int) ([]models.GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit = normalizeLimit(limit)
	start := max(0, len(s.generations)-limit)
	out := make([]models.GenerationRecord, len(s.generations)-start)
	copy(out, s.generations[start:])
	return out, nil
}

// ConversationIDs lists stored conversation IDs in sorted order.
func (s *InMemoryStore) ConversationIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *InMemoryStore) Close() error { return nil }

func cloneRecord(rec models.ConversationRecord) models.ConversationRecord {
	out := rec
	out.Turns = append([]models.Turn(nil), rec.Turns...)
	out.State = rec.State.Clone()
	if rec.Persona != nil {
		p := *rec.Persona
		p.PersonalityTraits = append([]string(nil), rec.Persona.PersonalityTraits...)
		out.Persona = &p
	}
	return out
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultGenerationLimit {
		return DefaultGenerationLimit
	}
	return limit
}
