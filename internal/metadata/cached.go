package metadata

import (
	"context"
	"time"

	"github.com/voyagen/upnext/internal/cache"
	"github.com/voyagen/upnext/internal/logging"
)

const ttlVideo = 6 * time.Hour

// Cached wraps a Resolver with a Redis cache of complete lookups. Failures and partial
// results are never cached so a later backfill asks the provider again.
type Cached struct {
	inner Resolver
	cache *cache.Redis
	log   logging.Logger
}

// NewCached creates a Cached resolver over inner.
func NewCached(inner Resolver, c *cache.Redis, log logging.Logger) *Cached {
	return &Cached{inner: inner, cache: c, log: log}
}

func (c *Cached) Resolve(ctx context.Context, videoID string) (*Metadata, error) {
	key := cache.VideoKey(videoID)
	if v, err := cache.Get[Metadata](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	md, err := c.inner.Resolve(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !md.Complete() {
		return md, nil
	}
	if err := cache.Set(ctx, c.cache, key, md, ttlVideo); err != nil {
		c.log.Warn(ctx, "cache set failed", "key", key, "error", err)
	}
	return md, nil
}
