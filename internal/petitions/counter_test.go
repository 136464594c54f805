package petitions

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container. Tests are skipped if Docker is not available.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping Redis integration tests")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("skipping: could not start Redis container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisCounter(t *testing.T) {
	rdb := setupRedis(t)
	c := NewRedisCounter(rdb, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, petitionID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Increment on a miss invalidates instead of creating a count.
	require.NoError(t, c.Increment(ctx, petitionID))
	_, ok, err = c.Get(ctx, petitionID)
	require.NoError(t, err)
	assert.False(t, ok)

	// A recount that raced the increment is dropped once.
	require.NoError(t, c.Set(ctx, petitionID, 40))
	_, ok, err = c.Get(ctx, petitionID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, petitionID, 41))
	require.NoError(t, c.Increment(ctx, petitionID))
	n, ok, err := c.Get(ctx, petitionID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 42, n)

	// Set never overwrites a live count.
	require.NoError(t, c.Set(ctx, petitionID, 7))
	n, _, err = c.Get(ctx, petitionID)
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)

	ttl, err := rdb.TTL(ctx, counterKey(petitionID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Forget(ctx, petitionID))
	_, ok, err = c.Get(ctx, petitionID)
	require.NoError(t, err)
	assert.False(t, ok)
}
