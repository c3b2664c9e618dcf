package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dedupe:"

// RedisStore records dedupe keys in redis, which makes replays collide
// correctly across gateway instances. SET NX is a single atomic
// check-and-set, so two near-simultaneous deliveries of the same retried
// webhook cannot both be treated as first seen; redis TTL expiry garbage
// collects entries.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the given redis URL and verifies the connection
// before returning. ttl <= 0 means DefaultTTL.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) IsDuplicateAndRecord(ctx context.Context, key string) (bool, error) {
	expiresAt := time.Now().Add(s.ttl).UTC().Format(time.RFC3339)

	set, err := s.client.SetNX(ctx, keyPrefix+key, expiresAt, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe check failed: %w", err)
	}
	// set == true means the key was absent (or expired) and is now recorded.
	return !set, nil
}

func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
