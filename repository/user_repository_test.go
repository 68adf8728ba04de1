package repository

import (
	"context"
	"testing"

	"bingohub/repository/testutil"
	"bingohub/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing account", func(t *testing.T) {
		account, err := repo.GetByUID(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("create if missing", func(t *testing.T) {
		testDB.Truncate(t)

		created, isNew, err := repo.CreateIfMissing(ctx, testutil.CreateTestAccount("alice"))
		require.NoError(t, err)
		assert.True(t, isNew)
		assert.Equal(t, int64(1000), created.Balance)
		assert.False(t, created.CreatedAt.IsZero())

		// A second sign-in keeps the stored balance
		again, isNew, err := repo.CreateIfMissing(ctx, testutil.CreateTestAccountWithBalance("alice", 5))
		require.NoError(t, err)
		assert.False(t, isNew)
		assert.Equal(t, int64(1000), again.Balance)
	})

	t.Run("update profile", func(t *testing.T) {
		testDB.Truncate(t)
		_, _, err := repo.CreateIfMissing(ctx, testutil.CreateTestAccount("alice"))
		require.NoError(t, err)

		require.NoError(t, repo.UpdateProfile(ctx, "alice", "Alice A.", "a@example.com", "https://example.com/a.png"))

		account, err := repo.GetByUID(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice A.", account.DisplayName)
		assert.Equal(t, "https://example.com/a.png", account.PhotoURL)

		assert.ErrorIs(t, repo.UpdateProfile(ctx, "nobody", "", "", ""), service.ErrAccountNotFound)
	})

	t.Run("add and deduct balance", func(t *testing.T) {
		testDB.Truncate(t)
		_, _, err := repo.CreateIfMissing(ctx, testutil.CreateTestAccountWithBalance("alice", 100))
		require.NoError(t, err)

		balance, err := repo.AddBalance(ctx, "alice", 50)
		require.NoError(t, err)
		assert.Equal(t, int64(150), balance)

		balance, err = repo.DeductBalance(ctx, "alice", 150)
		require.NoError(t, err)
		assert.Equal(t, int64(0), balance)

		_, err = repo.DeductBalance(ctx, "alice", 1)
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)

		account, err := repo.GetByUID(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(0), account.Balance, "failed deduction must leave the balance alone")
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := repo.AddBalance(ctx, "nobody", 10)
		assert.ErrorIs(t, err, service.ErrAccountNotFound)

		_, err = repo.DeductBalance(ctx, "nobody", 10)
		assert.ErrorIs(t, err, service.ErrAccountNotFound)
	})

	t.Run("non-positive amounts", func(t *testing.T) {
		_, err := repo.AddBalance(ctx, "alice", 0)
		assert.ErrorIs(t, err, service.ErrInvalidAmount)

		_, err = repo.DeductBalance(ctx, "alice", -5)
		assert.ErrorIs(t, err, service.ErrInvalidAmount)
	})

	t.Run("rejects invalid uid", func(t *testing.T) {
		_, _, err := repo.CreateIfMissing(ctx, testutil.CreateTestAccount("users.>"))
		assert.Error(t, err)
	})
}
