package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	p := Dial(mr.Addr(), time.Second)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return mr, p
}

func TestRedisGetSet(t *testing.T) {
	mr, p := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, p.Ping(ctx))

	_, ok, err := p.Get(ctx, "memcache_key")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.Set(ctx, "memcache_key", []byte(`{"a":1}`), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	got, ok, err := p.Get(ctx, "memcache_key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(got))
	assert.Equal(t, time.Minute, mr.TTL("memcache_key"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = p.Get(ctx, "memcache_key")
	require.NoError(t, err)
	assert.False(t, ok, "entry should have expired")
}

func TestRedisNoExpiry(t *testing.T) {
	mr, p := setupTestRedis(t)
	ok, err := p.Set(context.Background(), "k", []byte("v"), 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), mr.TTL("k"))
}

func TestRedisTransportError(t *testing.T) {
	mr, p := setupTestRedis(t)
	mr.Close()

	_, ok, err := p.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisNilClient(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestRedisBorrowedClientStaysOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	p, err := New(Config{Client: rdb})
	require.NoError(t, err)
	require.NoError(t, p.Close(context.Background()))
	require.NoError(t, rdb.Ping(context.Background()).Err())
}
