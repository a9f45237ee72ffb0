//go:build e2e

package ratelimit_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rental-settlement/internal/pkg/ratelimit"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisLimiter(t *testing.T) {
	client := startRedis(t)
	limiter := ratelimit.NewRedisLimiter(client, "ratelimit:test:")
	ctx := context.Background()

	t.Run("fixed window boundary", func(t *testing.T) {
		key := ratelimit.Key("webhook", "evt_boundary")
		for i, wantRemaining := range []int{2, 1, 0} {
			res, err := limiter.Check(ctx, key, 3, time.Second)
			require.NoError(t, err, "call %d", i+1)
			assert.Equal(t, wantRemaining, res.Remaining)
		}

		_, err := limiter.Check(ctx, key, 3, time.Second)
		var exceeded *ratelimit.ExceededError
		require.True(t, errors.As(err, &exceeded))
		assert.Equal(t, 0, exceeded.Remaining)
		assert.LessOrEqual(t, exceeded.Reset, time.Second)

		require.Eventually(t, func() bool {
			_, err := limiter.Check(ctx, key, 3, time.Second)
			return err == nil
		}, 3*time.Second, 100*time.Millisecond)
	})

	t.Run("reset clears the key", func(t *testing.T) {
		key := ratelimit.Key("intent", "user-reset")
		_, err := limiter.Check(ctx, key, 1, time.Minute)
		require.NoError(t, err)
		_, err = limiter.Check(ctx, key, 1, time.Minute)
		require.Error(t, err)

		require.NoError(t, limiter.Reset(ctx, key))
		_, err = limiter.Check(ctx, key, 1, time.Minute)
		assert.NoError(t, err)
	})
}
