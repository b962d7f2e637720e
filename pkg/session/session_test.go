package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestIdentity_Has(t *testing.T) {
	admin := Identity{Username: "a", Role: RoleAdmin}
	manager := Identity{Username: "m", Role: RoleManager}
	user := Identity{Username: "u", Role: RoleUser}

	assert.True(t, admin.Has(RoleManager))
	assert.True(t, manager.Has(RoleManager))
	assert.True(t, manager.Has(RoleUser))
	assert.False(t, user.Has(RoleManager))
	assert.False(t, Identity{Username: "x", Role: "ghost"}.Has(RoleUser))
}

func TestStore_Lifecycle(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	ctx := context.Background()
	s := New(client, time.Minute, []string{"mgr"}, nil)

	_, _, err := s.Create(ctx, "  ")
	require.ErrorIs(t, err, ErrInvalidUsername)

	sid, id, err := s.Create(ctx, "mgr")
	require.NoError(t, err)
	assert.Equal(t, RoleManager, id.Role)

	got, err := s.Lookup(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	ttl, err := client.TTL(ctx, keyPrefix+sid).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Delete(ctx, sid))
	_, err = s.Lookup(ctx, sid)
	assert.ErrorIs(t, err, ErrNoSession)
}
