package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/semcache/config"
)

func setupTestStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreFromClient(client, time.Minute, zap.NewNop())
	t.Cleanup(func() { _ = s.Close() })

	return mr, s
}

func TestRedisStore_SetAndGet(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	val, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestRedisStore_GetMissing(t *testing.T) {
	_, s := setupTestStore(t)

	_, err := s.Get(context.Background(), "absent")
	assert.True(t, IsNotFound(err))
}

func TestRedisStore_ZeroTTLUsesDefault(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", 0))

	ttl, err := s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)
}

func TestRedisStore_Expiry(t *testing.T) {
	mr, s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", 100*time.Millisecond))

	mr.FastForward(200 * time.Millisecond)

	_, err := s.Get(ctx, "k")
	assert.True(t, IsNotFound(err))
}

func TestRedisStore_Delete(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, s.Set(ctx, "b", "2", time.Minute))

	n, err := s.Delete(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRedisStore_KeysMatching(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "semcache:resp:w1:chat:aaa", "1", time.Minute))
	require.NoError(t, s.Set(ctx, "semcache:resp:w1:chat:bbb", "2", time.Minute))
	require.NoError(t, s.Set(ctx, "semcache:resp:w2:chat:ccc", "3", time.Minute))
	require.NoError(t, s.Set(ctx, "other:key", "4", time.Minute))

	keys, err := s.KeysMatching(ctx, "semcache:resp:w1:chat:*")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.ElementsMatch(t, []string{"semcache:resp:w1:chat:aaa", "semcache:resp:w1:chat:bbb"}, keys)

	keys, err = s.KeysMatching(ctx, "semcache:resp:*")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestRedisStore_HIncrBy(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	n, err := s.HIncrBy(ctx, "usage", "conv1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.HIncrBy(ctx, "usage", "conv1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.HIncrBy(ctx, "usage", "conv2", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	m, err := s.HGetAll(ctx, "usage")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"conv1": "2", "conv2": "1"}, m)
}

func TestRedisStore_HIncrByConcurrent(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func() {
			_, err := s.HIncrBy(ctx, "usage", "conv", 1)
			assert.NoError(t, err)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}

	m, err := s.HGetAll(ctx, "usage")
	require.NoError(t, err)
	assert.Equal(t, "20", m["conv"])
}

func TestRedisStore_HGetAllMissing(t *testing.T) {
	_, s := setupTestStore(t)

	m, err := s.HGetAll(context.Background(), "absent")
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestRedisStore_Expire(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Hour))
	require.NoError(t, s.Expire(ctx, "k", time.Minute))

	ttl, err := s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)
}

func TestRedisStore_PingAfterServerDown(t *testing.T) {
	mr, s := setupTestStore(t)

	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}

func TestNewRedisStore_BadAddr(t *testing.T) {
	// NewRedisStore pings during construction; an unreachable address fails fast.
	cfg := config.RedisConfig{Addr: "localhost:1"}
	_, err := NewRedisStore(cfg, time.Minute, zap.NewNop())
	assert.Error(t, err)
}

func TestNewRedisStore_Connects(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := config.RedisConfig{Addr: mr.Addr(), PoolSize: 4}
	s, err := NewRedisStore(cfg, time.Minute, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Ping(context.Background()))
}
