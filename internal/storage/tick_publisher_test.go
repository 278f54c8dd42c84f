package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lumina-dashboard/internal/config"
	"github.com/lumina-dashboard/internal/logging"
	"github.com/lumina-dashboard/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cache := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func sampleTick() models.MarketTick {
	return models.MarketTick{
		Sequence: 7,
		At:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Assets:   []models.Asset{{ID: "bitcoin", Symbol: "BTC", Price: 45000.5}},
		GasPrice: 17,
	}
}

func TestNewRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cache, err := NewRedisCache(&config.RedisConfig{Host: mr.Host(), Port: mr.Port(), MaxConnections: 2})
	require.NoError(t, err)
	defer cache.Close()

	assert.NoError(t, cache.Ping(context.Background()))
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	_, err = NewRedisCache(&config.RedisConfig{Host: host, Port: port, MaxConnections: 1})
	assert.Error(t, err)
}

func TestTickPublisher_RoundTrip(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := SubscribeTicks(ctx, cache, "")
	require.NoError(t, err)
	defer sub.Close()

	pub := NewTickPublisher(cache, "", logging.Discard())
	pub.OnTick(ctx, sampleTick())

	select {
	case got := <-sub.Ticks():
		assert.Equal(t, uint64(7), got.Sequence)
		assert.Equal(t, 17, got.GasPrice)
		require.Len(t, got.Assets, 1)
		assert.Equal(t, 45000.5, got.Assets[0].Price)
		assert.True(t, got.At.Equal(sampleTick().At))
	case <-ctx.Done():
		t.Fatal("tick was not delivered")
	}

	published, failed := pub.Counts()
	assert.Equal(t, uint64(1), published)
	assert.Zero(t, failed)
}

func TestTickPublisher_CustomChannel(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	sub, err := SubscribeTicks(ctx, cache, "ticks:test")
	require.NoError(t, err)
	defer sub.Close()

	assert.Eventually(t, func() bool {
		return len(mr.PubSubChannels("ticks:*")) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, NewTickPublisher(cache, "ticks:test", logging.Discard()).Publish(ctx, sampleTick()))

	select {
	case got := <-sub.Ticks():
		assert.Equal(t, uint64(7), got.Sequence)
	case <-time.After(2 * time.Second):
		t.Fatal("tick was not delivered")
	}
}

func TestTickPublisher_FailureIsCounted(t *testing.T) {
	cache, mr := setupTestRedis(t)
	pub := NewTickPublisher(cache, "", logging.Discard())

	mr.Close()
	pub.OnTick(context.Background(), sampleTick())

	published, failed := pub.Counts()
	assert.Zero(t, published)
	assert.Equal(t, uint64(1), failed)
}
