package repository

import (
	"context"
	"testing"

	"bingohub/models"
	"bingohub/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceHistoryRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	lobbies := NewLobbyRepository(testDB.DB)
	repo := NewBalanceHistoryRepository(testDB.DB)
	ctx := context.Background()

	_, _, err := users.CreateIfMissing(ctx, testutil.CreateTestAccount("alice"))
	require.NoError(t, err)
	require.NoError(t, lobbies.Create(ctx, testutil.CreateTestLobby("lobby-1", "alice", 50)))

	t.Run("record and read back newest first", func(t *testing.T) {
		first := testutil.CreateTestBalanceHistory("alice", models.TransactionTypeStartingBalance)
		require.NoError(t, repo.Record(ctx, first))
		assert.NotZero(t, first.ID)
		assert.False(t, first.CreatedAt.IsZero())

		lobbyID := "lobby-1"
		second := testutil.CreateTestBalanceHistory("alice", models.TransactionTypeStake)
		second.RelatedLobbyID = &lobbyID
		second.TransactionMetadata = map[string]any{"lobby_id": lobbyID}
		require.NoError(t, repo.Record(ctx, second))

		history, err := repo.GetByUser(ctx, "alice", 10)
		require.NoError(t, err)
		require.Len(t, history, 2)

		assert.Equal(t, second.ID, history[0].ID)
		assert.Equal(t, models.TransactionTypeStake, history[0].TransactionType)
		require.NotNil(t, history[0].RelatedLobbyID)
		assert.Equal(t, "lobby-1", *history[0].RelatedLobbyID)
		assert.Equal(t, "lobby-1", history[0].TransactionMetadata["lobby_id"])
		assert.Nil(t, history[1].RelatedLobbyID)
	})

	t.Run("limit", func(t *testing.T) {
		history, err := repo.GetByUser(ctx, "alice", 1)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("no history", func(t *testing.T) {
		history, err := repo.GetByUser(ctx, "nobody", 10)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("unknown transaction type is rejected", func(t *testing.T) {
		err := repo.Record(ctx, testutil.CreateTestBalanceHistory("alice", models.TransactionType("interest")))
		assert.Error(t, err)
	})
}
