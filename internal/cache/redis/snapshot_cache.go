package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// SnapshotCache implements domain.SnapshotCache using JSON values with a
// shared TTL, so a re-run shortly after a scan reuses the same market data
// instead of hitting the exchange APIs again.
//
// Key schema:
//
//	snapshot:{platform}:events              - JSON array of events
//	snapshot:{platform}:contracts:{eventID} - JSON array of contracts
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client. Keys
// written by this cache expire after ttl.
func NewSnapshotCache(c *Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying(), ttl: ttl}
}

func eventsKey(p domain.Platform) string {
	return fmt.Sprintf("snapshot:%s:events", p)
}

func contractsKey(p domain.Platform, eventID string) string {
	return fmt.Sprintf("snapshot:%s:contracts:%s", p, eventID)
}

// SetEvents stores the full open-event list for a platform.
func (sc *SnapshotCache) SetEvents(ctx context.Context, platform domain.Platform, events []domain.Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("redis: marshal %s events: %w", platform, err)
	}
	if err := sc.rdb.Set(ctx, eventsKey(platform), data, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s events: %w", platform, err)
	}
	return nil
}

// GetEvents retrieves the cached open-event list for a platform. It returns
// domain.ErrNotFound when the key does not exist or has expired.
func (sc *SnapshotCache) GetEvents(ctx context.Context, platform domain.Platform) ([]domain.Event, error) {
	data, err := sc.rdb.Get(ctx, eventsKey(platform)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get %s events: %w", platform, err)
	}

	var events []domain.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("redis: unmarshal %s events: %w", platform, err)
	}
	return events, nil
}

// SetContracts stores the contract list of one event.
func (sc *SnapshotCache) SetContracts(ctx context.Context, platform domain.Platform, eventID string, contracts []domain.Contract) error {
	data, err := json.Marshal(contracts)
	if err != nil {
		return fmt.Errorf("redis: marshal contracts %s/%s: %w", platform, eventID, err)
	}
	if err := sc.rdb.Set(ctx, contractsKey(platform, eventID), data, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set contracts %s/%s: %w", platform, eventID, err)
	}
	return nil
}

// GetContracts retrieves the cached contract list of one event. It returns
// domain.ErrNotFound when the key does not exist or has expired.
func (sc *SnapshotCache) GetContracts(ctx context.Context, platform domain.Platform, eventID string) ([]domain.Contract, error) {
	data, err := sc.rdb.Get(ctx, contractsKey(platform, eventID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get contracts %s/%s: %w", platform, eventID, err)
	}

	var contracts []domain.Contract
	if err := json.Unmarshal(data, &contracts); err != nil {
		return nil, fmt.Errorf("redis: unmarshal contracts %s/%s: %w", platform, eventID, err)
	}
	return contracts, nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
