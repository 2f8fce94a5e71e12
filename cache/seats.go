// Package cache keeps short-lived booked-seat snapshots in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "seats:"

// Client is the subset of redis commands the seat cache needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

type SeatCache struct {
	client Client
	ttl    time.Duration
}

func NewSeatCache(client Client, ttl time.Duration) *SeatCache {
	return &SeatCache{client: client, ttl: ttl}
}

func (c *SeatCache) BookedSeats(ctx context.Context, tripID string) ([]int, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+tripID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading seat snapshot: %w", err)
	}

	var seats []int
	if err := json.Unmarshal(raw, &seats); err != nil {
		return nil, false, fmt.Errorf("decoding seat snapshot: %w", err)
	}
	if seats == nil {
		seats = []int{}
	}
	return seats, true, nil
}

func (c *SeatCache) SetBookedSeats(ctx context.Context, tripID string, seats []int) error {
	raw, err := json.Marshal(seats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+tripID, raw, c.ttl).Err()
}

func (c *SeatCache) Invalidate(ctx context.Context, tripID string) error {
	return c.client.Del(ctx, keyPrefix+tripID).Err()
}
