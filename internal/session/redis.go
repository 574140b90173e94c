package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis under a key prefix, with expiry
// delegated to Redis TTLs.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "sess:"}
}

func (s *RedisStore) Create(ctx context.Context, memberID uint64, ttl time.Duration) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.prefix+id, strconv.FormatUint(memberID, 10), ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (uint64, error) {
	v, err := s.client.Get(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	memberID, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, ErrNotFound
	}
	return memberID, nil
}

func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.prefix+id).Err()
}
