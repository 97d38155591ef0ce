package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/PitchIQ/internal/models"
	"github.com/redis/go-redis/v9"
)

// Redis defaults.
const (
	DefaultKeyPrefix       = "pitchiq"
	DefaultConversationTTL = 24 * time.Hour
)

// RedisStore keeps conversation snapshots as expiring JSON keys and the
// generation log as a capped list (newest at the head).
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	cap    int
}

// NewRedisStore connects to the Redis server named by WithRedisURL.
func NewRedisStore(ctx context.Context, opts ...Option) (*RedisStore, error) {
	cfg := Opts{
		KeyPrefix:       DefaultKeyPrefix,
		ConversationTTL: DefaultConversationTTL,
		GenerationCap:   DefaultGenerationLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis URL not set")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if cfg.GenerationCap <= 0 {
		cfg.GenerationCap = DefaultGenerationLimit
	}
	slog.Debug("RedisStore.NewRedisStore: connected", "addr", redisOpts.Addr, "prefix", cfg.KeyPrefix, "ttl", cfg.ConversationTTL)
	return &RedisStore{client: client, prefix: cfg.KeyPrefix, ttl: cfg.ConversationTTL, cap: cfg.GenerationCap}, nil
}

func (s *RedisStore) conversationKey(id string) string {
	return fmt.Sprintf("%s:conversation:%s", s.prefix, id)
}

func (s *RedisStore) generationsKey() string {
	return s.prefix + ":generations"
}

// SaveConversation stores a snapshot and refreshes its TTL.
func (s *RedisStore) SaveConversation(ctx context.Context, rec models.ConversationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation %s: %w", rec.ID, err)
	}
	if err := s.client.Set(ctx, s.conversationKey(rec.ID), data, s.ttl).Err(); err != nil {
		slog.Error("RedisStore SaveConversation failed", "error", err, "id", rec.ID)
		return fmt.Errorf("failed to save conversation %s: %w", rec.ID, err)
	}
	slog.Debug("RedisStore SaveConversation succeeded", "id", rec.ID, "turns", len(rec.Turns))
	return nil
}

// GetConversation retrieves a snapshot.
func (s *RedisStore) GetConversation(ctx context.Context, id string) (*models.ConversationRecord, error) {
	data, err := s.client.Get(ctx, s.conversationKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		slog.Error("RedisStore GetConversation failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get conversation %s: %w", id, err)
	}
	var rec models.ConversationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation %s: %w", id, err)
	}
	return &rec, nil
}

// DeleteConversation removes a snapshot.
func (s *RedisStore) DeleteConversation(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.conversationKey(id)).Result()
	if err != nil {
		slog.Error("RedisStore DeleteConversation failed", "error", err, "id", id)
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddGeneration pushes a record and trims the list to its cap.
func (s *RedisStore) AddGeneration(ctx context.Context, rec models.GenerationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal generation %s: %w", rec.ID, err)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.generationsKey(), data)
	pipe.LTrim(ctx, s.generationsKey(), 0, int64(s.cap-1))
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("RedisStore AddGeneration failed", "error", err, "id", rec.ID)
		return fmt.Errorf("failed to add generation %s: %w", rec.ID, err)
	}
	return nil
}

// ListGenerations returns the most recent records, oldest first.
func (s *RedisStore) ListGenerations(ctx context.Context, limit int) ([]models.GenerationRecord, error) {
	raw, err := s.client.LRange(ctx, s.generationsKey(), 0, int64(normalizeLimit(limit)-1)).Result()
	if err != nil {
		slog.Error("RedisStore ListGenerations failed", "error", err)
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	out := make([]models.GenerationRecord, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var rec models.GenerationRecord
		if err := json.Unmarshal([]byte(raw[i]), &rec); err != nil {
			slog.Warn("RedisStore ListGenerations: skipping unreadable record", "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
