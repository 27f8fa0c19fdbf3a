// Package cache holds the Redis-backed visibility-scope cache for the
// tenant hierarchy.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tenant:"
const keySuffix = ":descendants"

// TenantScopeCache caches a tenant's descendant set so a TENANT_ADMIN login
// doesn't walk the hierarchy on every request for it -- the closure is
// computed once and reused until the hierarchy changes or the TTL expires.
type TenantScopeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTenantScopeCache creates a new tenant descendant-set cache.
func NewTenantScopeCache(client *redis.Client, ttl time.Duration) *TenantScopeCache {
	return &TenantScopeCache{client: client, ttl: ttl}
}

func descendantsKey(tenantID string) string {
	return keyPrefix + tenantID + keySuffix
}

// Get returns the cached descendant set for a tenant. The second return
// value is false on a cache miss.
func (c *TenantScopeCache) Get(ctx context.Context, tenantID string) ([]string, bool, error) {
	data, err := c.client.Get(ctx, descendantsKey(tenantID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get tenant descendants: %w", err)
	}

	var descendants []string
	if err := json.Unmarshal(data, &descendants); err != nil {
		return nil, false, fmt.Errorf("unmarshal tenant descendants: %w", err)
	}
	return descendants, true, nil
}

// Set stores a tenant's descendant set with the configured TTL.
func (c *TenantScopeCache) Set(ctx context.Context, tenantID string, descendants []string) error {
	data, err := json.Marshal(descendants)
	if err != nil {
		return fmt.Errorf("marshal tenant descendants: %w", err)
	}
	if err := c.client.Set(ctx, descendantsKey(tenantID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set tenant descendants: %w", err)
	}
	return nil
}

// Invalidate evicts a tenant's cached descendant set. Called whenever the
// hierarchy mutates so no stale closure survives past the write that
// changed it.
func (c *TenantScopeCache) Invalidate(ctx context.Context, tenantID string) error {
	if err := c.client.Del(ctx, descendantsKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("redis del tenant descendants: %w", err)
	}
	return nil
}
