package schedules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// AvailabilityCache serves seat counts from Redis so the booking form does
// not hammer the schedules table. Lookups for the same schedule collapse
// into one database read via singleflight.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewAvailabilityCache constructs the cache.
func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &AvailabilityCache{client: client, ttl: ttl}
}

func (c *AvailabilityCache) key(tenantID, scheduleID int64) string {
	return fmt.Sprintf("schedule:%d:%d:availability", tenantID, scheduleID)
}

// Get returns the cached availability, falling back to loader on miss.
func (c *AvailabilityCache) Get(ctx context.Context, tenantID, scheduleID int64, loader func(context.Context) (Availability, error)) (Availability, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key := c.key(tenantID, scheduleID)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var a Availability
		if err := json.Unmarshal(payload, &a); err == nil {
			return a, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		// Redis trouble never blocks availability reads.
		return loader(ctx)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		a, err := loader(ctx)
		if err != nil {
			return Availability{}, err
		}
		if data, err := json.Marshal(a); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttl).Err()
		}
		return a, nil
	})
	if err != nil {
		return Availability{}, err
	}
	return v.(Availability), nil
}

// Invalidate drops the cached entry after any quota mutation.
func (c *AvailabilityCache) Invalidate(ctx context.Context, tenantID, scheduleID int64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, c.key(tenantID, scheduleID)).Err()
}
