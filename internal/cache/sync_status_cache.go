package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GTDGit/tirestore_api/internal/models"
)

// SyncStatusKey is the Redis key holding the cached sync status.
const SyncStatusKey = "legacy_tires:sync_status"

// KV is the subset of RedisClient used by the typed caches.
type KV interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
}

// SyncStatusCache caches the catalog/legacy count comparison so the admin
// dashboard does not count both tables on every poll.
type SyncStatusCache struct {
	kv  KV
	ttl time.Duration
}

// NewSyncStatusCache creates a new SyncStatusCache.
func NewSyncStatusCache(kv KV, ttl time.Duration) *SyncStatusCache {
	return &SyncStatusCache{kv: kv, ttl: ttl}
}

// Get returns the cached status. A miss returns (nil, nil).
func (c *SyncStatusCache) Get(ctx context.Context) (*models.SyncStatus, error) {
	raw, err := c.kv.Get(ctx, SyncStatusKey)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var status models.SyncStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync status: %w", err)
	}
	return &status, nil
}

// Set stores status with the configured TTL.
func (c *SyncStatusCache) Set(ctx context.Context, status *models.SyncStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal sync status: %w", err)
	}
	return c.kv.Set(ctx, SyncStatusKey, string(data), c.ttl)
}

// Invalidate drops the cached status after the legacy table changed.
func (c *SyncStatusCache) Invalidate(ctx context.Context) error {
	return c.kv.Delete(ctx, SyncStatusKey)
}
