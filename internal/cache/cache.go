// Package cache stores rendered daily logs so repeated GET /trips/{id}/logs
// calls skip the database and the aggregator.
//
// Each trip owns one Redis hash keyed by trip ID; its fields are grid
// resolutions. Invalidating a trip deletes the hash, dropping every
// resolution at once.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "eld:logs:"

// Open parses url, connects and pings the server.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache.Open: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache.Open: ping: %w", err)
	}
	return client, nil
}

// Redis is a log cache backed by a go-redis client.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps client. A zero ttl keeps entries until invalidated.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func key(tripID uuid.UUID) string {
	return keyPrefix + tripID.String()
}

// Get returns the cached payload for a trip at a resolution. ok is false on a miss.
func (r *Redis) Get(ctx context.Context, tripID uuid.UUID, resolution int) ([]byte, bool, error) {
	b, err := r.client.HGet(ctx, key(tripID), strconv.Itoa(resolution)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache.Redis.Get: %w", err)
	}
	return b, true, nil
}

// Set stores payload and refreshes the trip's TTL.
func (r *Redis) Set(ctx context.Context, tripID uuid.UUID, resolution int, payload []byte) error {
	k := key(tripID)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, strconv.Itoa(resolution), payload)
		if r.ttl > 0 {
			p.Expire(ctx, k, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache.Redis.Set: %w", err)
	}
	return nil
}

// Invalidate drops every cached resolution for a trip.
func (r *Redis) Invalidate(ctx context.Context, tripID uuid.UUID) error {
	if err := r.client.Del(ctx, key(tripID)).Err(); err != nil {
		return fmt.Errorf("cache.Redis.Invalidate: %w", err)
	}
	return nil
}

// Nop is used when no Redis URL is configured. Every Get misses.
type Nop struct{}

func (Nop) Get(context.Context, uuid.UUID, int) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, uuid.UUID, int, []byte) error         { return nil }
func (Nop) Invalidate(context.Context, uuid.UUID) error               { return nil }
