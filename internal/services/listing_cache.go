package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const indexKeyPrefix = "yatube:index:page:"

// PageCache stores rendered listing pages.
type PageCache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// PostCacheInvalidator is notified after posts change.
type PostCacheInvalidator interface {
	InvalidatePosts(ctx context.Context)
}

// CachedListing caches the unfiltered home listing in front of another Listing.
// Every other query passes straight through.
type CachedListing struct {
	Listing
	cache PageCache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedListing(next Listing, cache PageCache, ttl time.Duration, log *zap.Logger) *CachedListing {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedListing{Listing: next, cache: cache, ttl: ttl, log: log}
}

func (c *CachedListing) ListPosts(ctx context.Context, p Principal, f Filter, page int) (*Page[models.Post], error) {
	if f.Kind != FilterAll {
		return c.Listing.ListPosts(ctx, p, f, page)
	}

	// entries are keyed by the page actually served, so out-of-range requests never add keys
	if page >= 1 {
		if cached, ok := c.lookup(ctx, indexKey(page)); ok {
			return cached, nil
		}
	}

	result, err := c.Listing.ListPosts(ctx, p, f, page)
	if err != nil {
		return nil, err
	}
	key := indexKey(result.Number)
	if raw, err := json.Marshal(result); err == nil {
		if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
			c.log.Warn("listing cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

func (c *CachedListing) lookup(ctx context.Context, key string) (*Page[models.Post], bool) {
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn("listing cache read failed", zap.String("key", key), zap.Error(err))
	}
	if !ok {
		return nil, false
	}
	var cached Page[models.Post]
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.log.Warn("listing cache entry unreadable", zap.String("key", key))
		return nil, false
	}
	return &cached, true
}

func indexKey(page int) string {
	return fmt.Sprintf("%s%d", indexKeyPrefix, page)
}

// InvalidatePosts drops every cached home page.
func (c *CachedListing) InvalidatePosts(ctx context.Context) {
	if err := c.cache.DeletePrefix(ctx, indexKeyPrefix); err != nil {
		c.log.Warn("listing cache purge failed", zap.Error(err))
	}
}

// RedisPageCache implements PageCache on a Redis server.
type RedisPageCache struct {
	client *redis.Client
}

func NewRedisPageCache(client *redis.Client) *RedisPageCache {
	return &RedisPageCache{client: client}
}

func (r *RedisPageCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisPageCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, val, ttl).Err()
}

func (r *RedisPageCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
