// Package seen implements the TTL-keyed replay-suppression set reports are
// checked and recorded against, grounded in the Redis-backed cache pattern
// used elsewhere in the retrieved example pack.
package seen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "quakewatch:seen:"

// defaultTTL matches the 12h backlog horizon the fusion engine already
// enforces in-process; the replay set only needs to outlive that window.
const defaultTTL = 12 * time.Hour

// Store is a Redis-backed implementation of fusion.SeenStore.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func Open(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("seen: invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("seen: redis connection failed: %w", err)
	}

	return &Store{client: client, ttl: defaultTTL}, nil
}

// Seen reports whether key has been marked before, using a background
// context with a short deadline since the fusion engine calls this inline
// on the ingest hot path.
func (s *Store) Seen(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := s.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		slog.Warn("seen: redis exists check failed, treating as unseen", "err", err)
		return false
	}
	return n > 0
}

// Mark records key with the replay-suppression TTL.
func (s *Store) Mark(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.client.Set(ctx, keyPrefix+key, 1, s.ttl).Err(); err != nil {
		slog.Warn("seen: redis mark failed", "key", key, "err", err)
	}
}

func (s *Store) Close() error { return s.client.Close() }
