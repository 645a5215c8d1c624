package permkit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const defaultSettingsCachePrefix = "permkit:orgsettings"

// orphanTTL bounds the lifetime of entries written without a ttl, which Invalidate
// leaves behind under an old version.
const orphanTTL = 24 * time.Hour

// SettingsCache is a read-through Redis cache in front of a SettingsReader.
// Entries are versioned per organization, so Invalidate drops every cached
// setting of an organization at once. Redis failures fall back to the reader.
type SettingsCache struct {
	client *redis.Client
	reader SettingsReader
	ttl    time.Duration
	prefix string
	group  singleflight.Group
}

// Compile-time interface checks.
var (
	_ SettingsReader    = (*SettingsCache)(nil)
	_ OrgSettingsSource = (*SettingsCache)(nil)
	_ Invalidator       = (*SettingsCache)(nil)
)

// SettingsCacheOption configures the SettingsCache.
type SettingsCacheOption func(*SettingsCache)

// WithCachePrefix sets the Redis key prefix.
func WithCachePrefix(prefix string) SettingsCacheOption {
	return func(c *SettingsCache) {
		c.prefix = strings.TrimSuffix(prefix, ":")
	}
}

// NewSettingsCache creates a cache over reader. Invalidate bumps the organization's
// version and leaves older entries to expire, so every entry gets a TTL: ttl, or
// orphanTTL when ttl is zero.
//
// Example:
//
//	cache := permkit.NewSettingsCache(redisClient, store, 5*time.Minute)
//	mw := permkit.NewMiddleware(evaluator, permkit.WithOrgSettingsSource(cache))
func NewSettingsCache(client *redis.Client, reader SettingsReader, ttl time.Duration, opts ...SettingsCacheOption) *SettingsCache {
	c := &SettingsCache{
		client: client,
		reader: reader,
		ttl:    ttl,
		prefix: defaultSettingsCachePrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a cached setting, loading it from the reader on a miss.
// Concurrent misses for the same key share one reader call.
func (c *SettingsCache) Get(ctx context.Context, orgID int64, role Role, perm Permission) (bool, error) {
	if c.client == nil {
		return c.reader.Get(ctx, orgID, role, perm)
	}

	key, err := c.buildKey(ctx, NewSettingKey(orgID, role, perm))
	if err != nil {
		return c.reader.Get(ctx, orgID, role, perm)
	}

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return cached == "1", nil
	}
	if !errors.Is(err, redis.Nil) {
		return c.reader.Get(ctx, orgID, role, perm)
	}

	// The shared load must outlive any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		allowed, err := c.reader.Get(loadCtx, orgID, role, perm)
		if err != nil {
			return false, err
		}
		val := "0"
		if allowed {
			val = "1"
		}
		// A failed write only costs a future miss.
		_ = c.client.Set(loadCtx, key, val, c.entryTTL()).Err()
		return allowed, nil
	})

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return false, res.Err
		}
		return res.Val.(bool), nil
	}
}

// Invalidate drops every cached setting of an organization.
func (c *SettingsCache) Invalidate(ctx context.Context, orgID int64) error {
	if c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, c.versionKey(orgID)).Err()
}

// Lookup binds the cache to ctx for use by the Evaluator.
func (c *SettingsCache) Lookup(ctx context.Context) OrgSettingsLookup {
	return lookupFromReader(ctx, c)
}

func (c *SettingsCache) version(ctx context.Context, orgID int64) (int64, error) {
	ver, err := c.client.Get(ctx, c.versionKey(orgID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return ver, err
}

func (c *SettingsCache) buildKey(ctx context.Context, key SettingKey) (string, error) {
	ver, err := c.version(ctx, key.OrganizationID)
	if err != nil {
		return "", err
	}
	return c.prefix + ":" + key.String() + ":v" + formatOrgID(ver), nil
}

func (c *SettingsCache) entryTTL() time.Duration {
	if c.ttl > 0 {
		return c.ttl
	}
	return orphanTTL
}

func (c *SettingsCache) versionKey(orgID int64) string {
	return c.prefix + ":version:" + formatOrgID(orgID)
}
