package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestMemoryRevocationStore(t *testing.T) {
	c := context.Background()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryRevocationStore()
	store.now = func() time.Time { return clock }

	revoked, err := store.IsRevoked(c, "sid")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(c, "sid", time.Minute))
	revoked, err = store.IsRevoked(c, "sid")
	require.NoError(t, err)
	assert.True(t, revoked)

	clock = clock.Add(2 * time.Minute)
	revoked, err = store.IsRevoked(c, "sid")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(c, "expired", 0))
	revoked, err = store.IsRevoked(c, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevocationStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	c := context.Background()

	redisContainer, err := testRedis.Run(c, "redis:7.4.2-alpine3.21")
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	connStr, err := redisContainer.ConnectionString(c)
	require.NoError(t, err)
	opt, err := redis.ParseURL(connStr)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { client.Close() })

	store := NewRedisRevocationStore(client)

	revoked, err := store.IsRevoked(c, "sid")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(c, "sid", time.Minute))
	revoked, err = store.IsRevoked(c, "sid")
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := client.TTL(c, KeyRevokedSession+"sid").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}
