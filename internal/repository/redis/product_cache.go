package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Zarakkhan-dev/automated-review-system/internal/domain"
	apperrors "github.com/Zarakkhan-dev/automated-review-system/pkg/errors"
)

const keyPrefix = "product:detail:"

// ProductCache implements repository.ProductCache using Redis.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProductCache creates a Redis-backed product detail cache.
func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached detail view for a product.
func (c *ProductCache) Get(ctx context.Context, productID string) (*domain.ProductDetail, error) {
	data, err := c.client.Get(ctx, keyPrefix+productID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("product detail", productID)
		}
		return nil, fmt.Errorf("redis get product detail: %w", err)
	}

	var detail domain.ProductDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("unmarshal product detail: %w", err)
	}

	return &detail, nil
}

// Set caches detail with the configured TTL.
func (c *ProductCache) Set(ctx context.Context, detail *domain.ProductDetail) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal product detail: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+detail.Product.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set product detail: %w", err)
	}

	return nil
}

// Invalidate drops the cached detail view for a product.
func (c *ProductCache) Invalidate(ctx context.Context, productID string) error {
	if err := c.client.Del(ctx, keyPrefix+productID).Err(); err != nil {
		return fmt.Errorf("redis del product detail: %w", err)
	}
	return nil
}
