package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeClient() *fakeClient {
	return &fakeClient{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeClient) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.values[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestSeatCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	c := NewSeatCache(client, 5*time.Second)

	_, ok, err := c.BookedSeats(ctx, "trip-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetBookedSeats(ctx, "trip-1", []int{3, 12}))
	assert.Equal(t, 5*time.Second, client.ttls["seats:trip-1"])

	seats, ok, err := c.BookedSeats(ctx, "trip-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{3, 12}, seats)

	require.NoError(t, c.Invalidate(ctx, "trip-1"))
	_, ok, err = c.BookedSeats(ctx, "trip-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSeatCacheEmptySnapshot(t *testing.T) {
	ctx := context.Background()
	c := NewSeatCache(newFakeClient(), time.Second)

	require.NoError(t, c.SetBookedSeats(ctx, "trip-1", []int{}))
	seats, ok, err := c.BookedSeats(ctx, "trip-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{}, seats)
}

func TestSeatCacheReadFailure(t *testing.T) {
	client := newFakeClient()
	client.err = errors.New("connection refused")

	_, ok, err := NewSeatCache(client, time.Second).BookedSeats(context.Background(), "trip-1")
	assert.Error(t, err)
	assert.False(t, ok)
}
