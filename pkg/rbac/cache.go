package rbac

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

// PermissionCache caches a user's resolved permission set between requests.
// A cache is an optimization only: misses and backend failures fall back to
// the store, and grant/revoke mutations invalidate the affected user.
type PermissionCache interface {
	Get(ctx context.Context, userID string) (PermissionSet, bool)
	Set(ctx context.Context, userID string, permissions PermissionSet)
	Invalidate(ctx context.Context, userID string)
}

// LRUPermissionCache is a per-process cache with TTL-based expiry. Suitable
// for single-instance deployments.
type LRUPermissionCache struct {
	cache *expirable.LRU[string, PermissionSet]
}

// NewLRUPermissionCache creates an in-process cache holding up to size
// entries, each expiring after ttl.
func NewLRUPermissionCache(size int, ttl time.Duration) *LRUPermissionCache {
	return &LRUPermissionCache{
		cache: expirable.NewLRU[string, PermissionSet](size, nil, ttl),
	}
}

func (c *LRUPermissionCache) Get(_ context.Context, userID string) (PermissionSet, bool) {
	return c.cache.Get(userID)
}

func (c *LRUPermissionCache) Set(_ context.Context, userID string, permissions PermissionSet) {
	c.cache.Add(userID, permissions)
}

func (c *LRUPermissionCache) Invalidate(_ context.Context, userID string) {
	c.cache.Remove(userID)
}

// RedisPermissionCache shares resolved permission sets across instances.
// Values are stored as JSON arrays of permission names; an entry that no
// longer decodes against the registry is dropped and treated as a miss.
type RedisPermissionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Entry
}

const redisPermissionKeyPrefix = "slovar:permissions:"

// NewRedisPermissionCache creates a Redis-backed cache with the given TTL.
func NewRedisPermissionCache(client *redis.Client, ttl time.Duration, logger *logrus.Entry) *RedisPermissionCache {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &RedisPermissionCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisPermissionCache) Get(ctx context.Context, userID string) (PermissionSet, bool) {
	payload, err := c.client.Get(ctx, redisPermissionKeyPrefix+userID).Result()
	if err == redis.Nil {
		return PermissionSet{}, false
	}
	if err != nil {
		c.logger.WithError(err).Warn("permission cache read failed, falling back to store")
		return PermissionSet{}, false
	}

	var names []string
	if err := json.Unmarshal([]byte(payload), &names); err != nil {
		c.dropCorrupt(ctx, userID, err)
		return PermissionSet{}, false
	}
	permissions, err := PermissionSetFromNames(names)
	if err != nil {
		c.dropCorrupt(ctx, userID, err)
		return PermissionSet{}, false
	}
	return permissions, true
}

func (c *RedisPermissionCache) Set(ctx context.Context, userID string, permissions PermissionSet) {
	payload, err := json.Marshal(permissions.Names())
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisPermissionKeyPrefix+userID, payload, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("permission cache write failed")
	}
}

func (c *RedisPermissionCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, redisPermissionKeyPrefix+userID).Err(); err != nil {
		c.logger.WithError(err).Warn("permission cache invalidation failed")
	}
}

func (c *RedisPermissionCache) dropCorrupt(ctx context.Context, userID string, err error) {
	c.logger.WithError(err).WithField("user_id", userID).
		Warn("dropping undecodable permission cache entry")
	c.client.Del(ctx, redisPermissionKeyPrefix+userID)
}
