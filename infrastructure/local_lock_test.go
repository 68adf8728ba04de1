package infrastructure

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLock(t *testing.T) {
	ctx := context.Background()

	t.Run("held key is refused until released", func(t *testing.T) {
		lock := NewLocalLock(time.Minute)

		token, ok, err := lock.Acquire(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.NotEmpty(t, token)

		_, ok, err = lock.Acquire(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = lock.Acquire(ctx, "other")
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, lock.Release(ctx, "k", token))
		_, ok, err = lock.Acquire(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("stale token does not release", func(t *testing.T) {
		lock := NewLocalLock(time.Minute)

		_, ok, err := lock.Acquire(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, lock.Release(ctx, "k", "someone-else"))
		_, ok, err = lock.Acquire(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("lease expires", func(t *testing.T) {
		lock := NewLocalLock(time.Second)
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		lock.now = func() time.Time { return now }

		first, ok, err := lock.Acquire(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)

		now = now.Add(2 * time.Second)
		second, ok, err := lock.Acquire(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.NotEqual(t, first, second)

		// The expired holder cannot release the new lease
		require.NoError(t, lock.Release(ctx, "k", first))
		_, ok, err = lock.Acquire(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("release requires key and token", func(t *testing.T) {
		lock := NewLocalLock(time.Minute)
		assert.Error(t, lock.Release(ctx, "", "t"))
		assert.Error(t, lock.Release(ctx, "k", ""))
	})

	t.Run("cancelled context", func(t *testing.T) {
		lock := NewLocalLock(time.Minute)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, ok, err := lock.Acquire(cancelled, "k")
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, ok)
	})

	t.Run("one winner under contention", func(t *testing.T) {
		lock := NewLocalLock(time.Minute)

		var winners atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, ok, err := lock.Acquire(ctx, "k"); err == nil && ok {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), winners.Load())
	})
}
