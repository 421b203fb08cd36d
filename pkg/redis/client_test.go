package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommands struct {
	data    map[string]string
	counts  map[string]int64
	expires map[string]time.Duration
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{
		data:    map[string]string{},
		counts:  map[string]int64{},
		expires: map[string]time.Duration{},
	}
}

func (f *fakeCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCommands) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCommands) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCommands) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeCommands) PExpire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expires[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestFixedWindowAllowCountsAndExpiresOnce(t *testing.T) {
	ctx := context.Background()
	cmds := newFakeCommands()
	client := &Client{cmd: cmds}

	var results []bool
	for i := 0; i < 3; i++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "vendor-login:ip:1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
		assert.EqualValues(t, i+1, count)
		results = append(results, allowed)
	}
	assert.Equal(t, []bool{true, true, false}, results)
	assert.Equal(t, map[string]time.Duration{"rp:rate_limit:vendor-login:ip:1.2.3.4": time.Minute}, cmds.expires)
}

func TestSetNXGuardsSecondWriter(t *testing.T) {
	ctx := context.Background()
	client := &Client{cmd: newFakeCommands()}
	key := client.IdempotencyKey("payment-webhook", "razorpay:evt_1")

	first, err := client.SetNX(ctx, key, "pending", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)
	second, err := client.SetNX(ctx, key, "pending", time.Hour)
	require.NoError(t, err)
	assert.False(t, second)

	require.NoError(t, client.Set(ctx, key, "done", time.Hour))
	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "done", got)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestDeleteIfValueChecksOwner(t *testing.T) {
	ctx := context.Background()
	client := &Client{cmd: newFakeCommands()}
	key := client.LockKey("cron-worker")
	ok, err := client.SetNX(ctx, key, "owner-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	deleted, err := client.DeleteIfValue(ctx, key, "owner-b")
	require.NoError(t, err)
	assert.False(t, deleted, "foreign owner must not delete")

	deleted, err = client.DeleteIfValue(ctx, key, "owner-a")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = client.DeleteIfValue(ctx, key, "owner-a")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestKeysUsePrefix(t *testing.T) {
	var zero *Client
	assert.Equal(t, "rp:idempotency:scope:id", zero.IdempotencyKey("scope", "id"))
	assert.Equal(t, "rp:idempotency:id", zero.IdempotencyKey(" ", "id"))

	staging := &Client{prefix: "rp-staging"}
	assert.Equal(t, "rp-staging:rate_limit:login", staging.RateLimitKey("login"))
	assert.Equal(t, "rp-staging:lock:cron-worker:prod", staging.LockKey("cron-worker:prod"))
}

func TestZeroClientReportsNotConnected(t *testing.T) {
	client := &Client{}
	_, err := client.Get(context.Background(), "k")
	assert.True(t, errors.Is(err, ErrNotConnected))
	assert.ErrorIs(t, client.Ping(context.Background()), ErrNotConnected)
	assert.NoError(t, client.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://:secret@cache.internal:6380/3",
		PoolSize:    20,
		DialTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, 2*time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 1})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 1, opts.DB)
}
