package proxy

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisBanStore persists proxy bans in Redis as a key with a TTL equal to
// the remaining ban duration, so reinstatement happens for free via Redis
// key expiry instead of a background sweep — the same "let the store's own
// expiry do the reinstatement work" shape as a plain in-process TTL ban,
// just durable across restarts.
type RedisBanStore struct {
	client *redis.Client
	prefix string
}

// NewRedisBanStore builds a RedisBanStore from an already-configured
// *redis.Client. keyPrefix namespaces the ban keys (e.g. "ironbullet:ban:")
// so multiple runner instances can share one Redis without colliding.
func NewRedisBanStore(client *redis.Client, keyPrefix string) *RedisBanStore {
	if keyPrefix == "" {
		keyPrefix = "proxyban:"
	}
	return &RedisBanStore{client: client, prefix: keyPrefix}
}

func (s *RedisBanStore) key(proxyURL string) string {
	return s.prefix + proxyURL
}

// IsBanned reports whether the ban key for proxyURL still exists.
func (s *RedisBanStore) IsBanned(ctx context.Context, proxyURL string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(proxyURL)).Result()
	if err != nil {
		return false, fmt.Errorf("proxy: redis exists %s: %w", proxyURL, err)
	}
	return n > 0, nil
}

// Ban sets the ban key for proxyURL with a TTL of duration. A duration of
// zero or less is rounded up to one second so the key doesn't expire
// before Redis can even set it.
func (s *RedisBanStore) Ban(ctx context.Context, proxyURL string, duration time.Duration) error {
	if duration <= 0 {
		duration = time.Second
	}
	if err := s.client.Set(ctx, s.key(proxyURL), "1", duration).Err(); err != nil {
		return fmt.Errorf("proxy: redis set %s: %w", proxyURL, err)
	}
	return nil
}
