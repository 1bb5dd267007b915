// Package cache stores per-unit search results in Redis so interrupted or
// partially failed runs only re-query the units that were never collected.
// An empty record list is cached too: it means the unit was searched and
// matched nothing, which is a result, not a gap.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nmorel/bvharvest/internal/feature"
	"github.com/nmorel/bvharvest/internal/query"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

func New(addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

func unitKey(u query.Unit) string {
	return fmt.Sprintf("%s:%s:%s", u.Kind, u.GenomeID, u.Term)
}

func trackHash(track string) string {
	return "results:" + track
}

// Put stores the records collected for one unit.
func (c *Cache) Put(ctx context.Context, track string, u query.Unit, records []feature.Record) error {
	if records == nil {
		records = []feature.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return c.client.HSet(ctx, trackHash(track), unitKey(u), string(data)).Err()
}

// Get returns the cached records for one unit. ok is false when the unit has
// never been stored.
func (c *Cache) Get(ctx context.Context, track string, u query.Unit) ([]feature.Record, bool, error) {
	data, err := c.client.HGet(ctx, trackHash(track), unitKey(u)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var records []feature.Record
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, false, err
	}
	return records, true, nil
}

// Len reports how many units are cached for a track.
func (c *Cache) Len(ctx context.Context, track string) (int, error) {
	n, err := c.client.HLen(ctx, trackHash(track)).Result()
	return int(n), err
}

func (c *Cache) Close() error {
	return c.client.Close()
}
