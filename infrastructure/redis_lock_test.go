package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLock(t *testing.T) {
	url := startRedis(t)
	ctx := context.Background()

	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	lock := NewRedisLock(client, time.Minute)

	t.Run("held key is refused until released", func(t *testing.T) {
		token, ok, err := lock.Acquire(ctx, "bingo:lobby:l1:caller")
		require.NoError(t, err)
		require.True(t, ok)
		assert.NotEmpty(t, token)

		_, ok, err = lock.Acquire(ctx, "bingo:lobby:l1:caller")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, lock.Release(ctx, "bingo:lobby:l1:caller", token))
		token, ok, err = lock.Acquire(ctx, "bingo:lobby:l1:caller")
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, lock.Release(ctx, "bingo:lobby:l1:caller", token))
	})

	t.Run("stale token does not release", func(t *testing.T) {
		_, ok, err := lock.Acquire(ctx, "bingo:lobby:l2:caller")
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, lock.Release(ctx, "bingo:lobby:l2:caller", "someone-else"))
		_, ok, err = lock.Acquire(ctx, "bingo:lobby:l2:caller")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("key expires", func(t *testing.T) {
		short := NewRedisLock(client, 100*time.Millisecond)
		_, ok, err := short.Acquire(ctx, "bingo:lobby:l3:caller")
		require.NoError(t, err)
		require.True(t, ok)

		assert.Eventually(t, func() bool {
			_, ok, err := short.Acquire(ctx, "bingo:lobby:l3:caller")
			return err == nil && ok
		}, 2*time.Second, 50*time.Millisecond)
	})

	t.Run("release requires key and token", func(t *testing.T) {
		assert.Error(t, lock.Release(ctx, "", "t"))
		assert.Error(t, lock.Release(ctx, "k", ""))
	})
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
