package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"feed_service/internal/models"

	"github.com/redis/go-redis/v9"
)

const pageTTL = time.Minute

type cachedPage struct {
	Posts []models.Post `json:"posts"`
	Total int64         `json:"total"`
}

// FeedCache holds recently served feed pages. Keys carry a generation
// counter; Invalidate bumps it so stale pages stop matching and expire
// by TTL.
type FeedCache struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*FeedCache, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &FeedCache{client: client}, nil
}

func (c *FeedCache) GetPage(ctx context.Context, page int) ([]models.Post, int64, bool) {
	key, err := c.pageKey(ctx, page)
	if err != nil {
		return nil, 0, false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, 0, false
	}

	var cached cachedPage
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, 0, false
	}

	return cached.Posts, cached.Total, true
}

func (c *FeedCache) SetPage(ctx context.Context, page int, posts []models.Post, total int64) error {
	const op = "storage.redis.SetPage"

	key, err := c.pageKey(ctx, page)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	raw, err := json.Marshal(cachedPage{Posts: posts, Total: total})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := c.client.Set(ctx, key, raw, pageTTL).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *FeedCache) Invalidate(ctx context.Context) error {
	const op = "storage.redis.Invalidate"

	if err := c.client.Incr(ctx, "feed:gen").Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *FeedCache) pageKey(ctx context.Context, page int) (string, error) {
	gen, err := c.client.Get(ctx, "feed:gen").Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}

	return fmt.Sprintf("feed:%d:page:%d", gen, page), nil
}

func (c *FeedCache) Close() {
	c.client.Close()
}
