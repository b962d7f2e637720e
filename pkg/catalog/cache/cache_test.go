package cache

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/pkg/catalog"
	"bookstore/pkg/catalog/memory"
	"bookstore/pkg/logger"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestGetBookByID_ReadThrough(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	backing := memory.New()
	prefix := "test-" + uuid.NewString()
	s := New(backing, client, prefix, time.Minute, logger.New(io.Discard, logger.LevelInfo, "test", nil))

	b := catalog.Book{ID: uuid.New(), Title: "Cached", Price: decimal.RequireFromString("9.99")}
	require.NoError(t, backing.AddBook(ctx, b))
	defer client.Del(ctx, s.key(b.ID))

	got, err := s.GetBookByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Title, got.Title)

	exists, err := client.Exists(ctx, s.key(b.ID)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	// served from redis, the backing price change is not visible until expiry
	require.NoError(t, backing.SetPrice(b.ID, decimal.RequireFromString("1")))
	got, err = s.GetBookByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("9.99")))

	_, err = s.GetBookByID(ctx, uuid.New())
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestGetBookByID_RedisDown(t *testing.T) {
	ctx := context.Background()
	backing := memory.New()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer client.Close()
	var buf bytes.Buffer
	s := New(backing, client, "down", time.Minute, logger.New(&buf, logger.LevelDebug, "test", nil))

	b := catalog.Book{ID: uuid.New(), Title: "Fallback", Price: decimal.RequireFromString("3")}
	require.NoError(t, s.AddBook(ctx, b))
	assert.Contains(t, buf.String(), "cache write failed")

	buf.Reset()
	got, err := s.GetBookByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Contains(t, buf.String(), "cache read failed")
	assert.Contains(t, buf.String(), b.ID.String())
}
