package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SaicoBys/airbnb-manager/internal/config"
	"github.com/SaicoBys/airbnb-manager/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisSpendingCache stores client spending profiles in Redis with a TTL.
// A missing key is a cache miss (nil, nil), not an error.
type RedisSpendingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisSpendingCache(client *redis.Client, ttl time.Duration) *RedisSpendingCache {
	return &RedisSpendingCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisSpendingCache) GetSpending(ctx context.Context, clientID int64) (*models.SpendingProfile, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("spending:%d", clientID)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get spending profile from redis: %w", err)
	}

	var profile models.SpendingProfile
	if err := json.Unmarshal([]byte(val), &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal spending profile: %w", err)
	}

	return &profile, nil
}

func (r *RedisSpendingCache) SetSpending(ctx context.Context, profile *models.SpendingProfile) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("spending:%d", profile.ClientID)
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal spending profile: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set spending profile in redis: %w", err)
	}

	return nil
}

// Ping verifies the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
