package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"krishak/internal/models"

	"github.com/go-redis/redis/v8"
)

// RedisCartRepository stores each cart as a redis hash "cart:<buyer>" whose
// fields are product ids and values are JSON encoded cart items. The whole
// hash expires ttl after its last write.
type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCartRepository creates a RedisCartRepository.
func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{client: client, ttl: ttl}
}

func cartKey(buyerID string) string {
	return "cart:" + buyerID
}

func (r *RedisCartRepository) Items(ctx context.Context, buyerID string) ([]models.CartItem, error) {
	fields, err := r.client.HGetAll(ctx, cartKey(buyerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cart of %s: %w", buyerID, err)
	}
	items := make([]models.CartItem, 0, len(fields))
	for productID, raw := range fields {
		var item models.CartItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("corrupt cart entry %s for %s: %w", productID, buyerID, err)
		}
		items = append(items, item)
	}
	sortCartItems(items)
	return items, nil
}

func (r *RedisCartRepository) Put(ctx context.Context, buyerID string, item models.CartItem) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode cart item: %w", err)
	}
	key := cartKey(buyerID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, item.ProductID, raw)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write cart of %s: %w", buyerID, err)
	}
	return nil
}

func (r *RedisCartRepository) Remove(ctx context.Context, buyerID, productID string) error {
	if err := r.client.HDel(ctx, cartKey(buyerID), productID).Err(); err != nil {
		return fmt.Errorf("failed to remove %s from cart of %s: %w", productID, buyerID, err)
	}
	return nil
}

func (r *RedisCartRepository) Clear(ctx context.Context, buyerID string) error {
	if err := r.client.Del(ctx, cartKey(buyerID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart of %s: %w", buyerID, err)
	}
	return nil
}
