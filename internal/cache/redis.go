package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    2 * time.Hour,
	}
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (r RedisCache) Get(ctx context.Context, trolleyID string) (*domain.CartSnapshot, error) {
	key := cacheKey(trolleyID)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var snapshot domain.CartSnapshot
	if err2 := json.Unmarshal(data, &snapshot); err2 != nil {
		return nil, fmt.Errorf("unmarshal snapshot failed: %w", err2)
	}

	return &snapshot, nil
}

func (r RedisCache) Set(ctx context.Context, trolleyID string, snapshot *domain.CartSnapshot) error {
	key := cacheKey(trolleyID)
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, trolleyID string) error {
	key := cacheKey(trolleyID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func cacheKey(trolleyID string) string {
	return fmt.Sprintf("trolley:%s:snapshot", trolleyID)
}
