package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chat-relay-backend/internal/model"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "chat:attachment:"

// RedisStore writes the bytes and the JSON metadata under two keys that
// expire together.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, attachment model.Attachment, data []byte) error {
	meta, err := json.Marshal(attachment)
	if err != nil {
		return fmt.Errorf("marshal attachment %s: %w", attachment.Key, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+attachment.Key+":data", data, s.ttl)
	pipe.Set(ctx, redisKeyPrefix+attachment.Key+":meta", meta, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put %s: %w", attachment.Key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (model.Attachment, []byte, error) {
	values, err := s.client.MGet(ctx, redisKeyPrefix+key+":meta", redisKeyPrefix+key+":data").Result()
	if err != nil {
		return model.Attachment{}, nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	meta, okMeta := values[0].(string)
	data, okData := values[1].(string)
	if !okMeta || !okData {
		return model.Attachment{}, nil, ErrNotFound
	}

	var attachment model.Attachment
	if err := json.Unmarshal([]byte(meta), &attachment); err != nil {
		return model.Attachment{}, nil, fmt.Errorf("decode attachment %s: %w", key, err)
	}
	return attachment, []byte(data), nil
}
