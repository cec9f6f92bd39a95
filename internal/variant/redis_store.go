package variant

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists bucket assignments in Redis with no expiry, so a
// visitor keeps their bucket across visits.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis-backed assignment store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("variant: redis client required")
	}
	return &RedisStore{redis: redisClient}
}

func (s *RedisStore) key(visitorID string) string {
	return fmt.Sprintf("variant:bucket:%s", visitorID)
}

func (s *RedisStore) Get(ctx context.Context, visitorID string) (string, error) {
	bucket, err := s.redis.Get(ctx, s.key(visitorID)).Result()
	if err == redis.Nil {
		return "", ErrNotAssigned
	}
	if err != nil {
		return "", fmt.Errorf("variant: get bucket: %w", err)
	}
	return bucket, nil
}

func (s *RedisStore) SetIfAbsent(ctx context.Context, visitorID, bucket string) (string, error) {
	// SetNX loses the race gracefully: whoever wrote first wins and everyone
	// reads back the stored value.
	if err := s.redis.SetNX(ctx, s.key(visitorID), bucket, 0).Err(); err != nil {
		return "", fmt.Errorf("variant: set bucket: %w", err)
	}
	stored, err := s.redis.Get(ctx, s.key(visitorID)).Result()
	if err != nil {
		return "", fmt.Errorf("variant: read back bucket: %w", err)
	}
	return stored, nil
}
