package question

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultCacheTTL = 5 * time.Minute
	categoriesKey   = "trivia:categories"
)

// CategoryCache stores the category list. Get returns nil, nil on a miss.
type CategoryCache interface {
	Get(ctx context.Context) ([]Category, error)
	Set(ctx context.Context, categories []Category) error
	Invalidate(ctx context.Context) error
}

// Cache is the Redis-backed CategoryCache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ CategoryCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context) ([]Category, error) {
	data, err := c.client.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var categories []Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Cache) Set(ctx context.Context, categories []Category) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, categoriesKey, data, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, categoriesKey).Err()
}

// NopCache never stores anything. Used when Redis is not configured.
type NopCache struct{}

func (NopCache) Get(context.Context) ([]Category, error) { return nil, nil }
func (NopCache) Set(context.Context, []Category) error { return nil }
func (NopCache) Invalidate(context.Context) error { return nil }
