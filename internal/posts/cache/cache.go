// Package cache holds the per-author post list cache. Reads fall back to
// the store on a miss; mutations invalidate through the outcome hook so
// each successful mutation drops the list exactly once.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/GustavEkberg/init/internal/platform/metrics"
	platformredis "github.com/GustavEkberg/init/internal/platform/redis"
	"github.com/GustavEkberg/init/internal/posts/models"
)

// ListCache caches an author's post list.
type ListCache interface {
	GetList(ctx context.Context, authorID uuid.UUID) ([]models.Post, bool, error)
	SetList(ctx context.Context, authorID uuid.UUID, posts []models.Post) error
	Invalidate(ctx context.Context, authorID uuid.UUID) error
}

// RedisCache stores post lists as JSON blobs with a TTL.
type RedisCache struct {
	client  *platformredis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewRedis constructs a Redis-backed list cache.
func NewRedis(client *platformredis.Client, ttl time.Duration, m *metrics.Metrics) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, metrics: m}
}

func listKey(authorID uuid.UUID) string {
	return "posts:author:" + authorID.String()
}

func (c *RedisCache) GetList(ctx context.Context, authorID uuid.UUID) ([]models.Post, bool, error) {
	raw, err := c.client.Get(ctx, listKey(authorID)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached posts: %w", err)
	}

	var posts []models.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the
		// next fill.
		return nil, false, nil
	}
	return posts, true, nil
}

func (c *RedisCache) SetList(ctx context.Context, authorID uuid.UUID, posts []models.Post) error {
	raw, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("marshal posts: %w", err)
	}
	if err := c.client.Set(ctx, listKey(authorID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache posts: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, authorID uuid.UUID) error {
	if err := c.client.Del(ctx, listKey(authorID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached posts: %w", err)
	}
	if c.metrics != nil {
		c.metrics.CacheInvalidations.Inc()
	}
	return nil
}

// Noop satisfies ListCache when no Redis is configured. Every read is a
// miss and invalidation still counts, so metrics stay comparable across
// deployments.
type Noop struct {
	Metrics *metrics.Metrics
}

func (n Noop) GetList(context.Context, uuid.UUID) ([]models.Post, bool, error) {
	return nil, false, nil
}

func (n Noop) SetList(context.Context, uuid.UUID, []models.Post) error { return nil }

func (n Noop) Invalidate(context.Context, uuid.UUID) error {
	if n.Metrics != nil {
		n.Metrics.CacheInvalidations.Inc()
	}
	return nil
}
