package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xlebussssshek/warehouse-bot/internal/core/domain"
)

const (
	stockKeyPrefix  = "stock:"
	updateKeyPrefix = "update:"
	// Cached balances expire so a stale entry can never outlive the window,
	// whatever ordering the writers produced.
	stockKeyTTL  = 10 * time.Minute
	updateKeyTTL = 24 * time.Hour
)

// RedisAdapter caches balances for fast /stock lookups and dedupes
// redelivered chat updates. MySQL stays the source of truth.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) GetSKU(ctx context.Context, code string) (*domain.SKU, error) {
	data, err := r.client.Get(ctx, stockKeyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached sku: %w", err)
	}

	var sku domain.SKU
	if err := json.Unmarshal(data, &sku); err != nil {
		return nil, fmt.Errorf("decode cached sku: %w", err)
	}
	return &sku, nil
}

func (r *RedisAdapter) SetSKU(ctx context.Context, sku domain.SKU) error {
	data, err := json.Marshal(sku)
	if err != nil {
		return fmt.Errorf("encode sku: %w", err)
	}
	return r.client.Set(ctx, stockKeyPrefix+sku.Code, data, stockKeyTTL).Err()
}

func (r *RedisAdapter) DeleteSKU(ctx context.Context, code string) error {
	return r.client.Del(ctx, stockKeyPrefix+code).Err()
}

func (r *RedisAdapter) ClaimUpdate(ctx context.Context, updateID int) (bool, error) {
	key := fmt.Sprintf("%s%d", updateKeyPrefix, updateID)
	ok, err := r.client.SetNX(ctx, key, 1, updateKeyTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
