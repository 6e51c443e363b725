package otpstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps pending codes in redis
// SET with expiry gives the replace-on-reissue and natural expiry
// semantics without any bookkeeping of our own
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(email string) string {
	return "otp:" + email
}

func (s *RedisStore) Upsert(ctx context.Context, email string, code string, ttl time.Duration) error {
	err := s.client.Set(ctx, key(email), code, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (s *RedisStore) Verify(ctx context.Context, email string, code string) (bool, error) {
	stored, err := s.client.Get(ctx, key(email)).Result()

	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("redis error: %w", err)
	}

	return stored == code, nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	err := s.client.Del(ctx, key(email)).Err()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}
